package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the provider config file and invokes a callback with the
// reloaded provider set after each change. Editors typically produce bursts
// of write/rename events, so changes are debounced before reloading.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload func(*UserConfig)
	done     chan struct{}
}

// WatchUserConfig starts watching <dataDir>/config.toml. The callback runs
// on the watcher goroutine; it receives the newly parsed config only when
// the file parses and validates cleanly (a broken edit keeps the previous
// provider set in effect).
func WatchUserConfig(dataDir string, onReload func(*UserConfig)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	path := GetUserConfigPath(dataDir)

	// Watch the directory, not the file: rename-and-replace saves would
	// otherwise drop the watch.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	w := &Watcher{
		watcher:  fsw,
		path:     path,
		onReload: onReload,
		done:     make(chan struct{}),
	}

	go w.loop()

	return w, nil
}

func (w *Watcher) loop() {
	const debounce = 250 * time.Millisecond

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				timerC = timer.C
			} else {
				timer.Reset(debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if DebugLog != nil {
				DebugLog.Printf("[Config] Watcher error: %v", err)
			}

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadUserConfigFromPath(w.path)
	if err != nil || cfg == nil {
		if DebugLog != nil {
			DebugLog.Printf("[Config] Reload skipped, parse failed: %v", err)
		}
		return
	}

	if err := ValidateProviders(cfg.Providers); err != nil {
		if DebugLog != nil {
			DebugLog.Printf("[Config] Reload skipped, invalid providers: %v", err)
		}
		return
	}

	if DebugLog != nil {
		DebugLog.Printf("[Config] Reloaded %d providers from %s", len(cfg.Providers), w.path)
	}

	w.onReload(cfg)
}

// Close stops the watcher. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
