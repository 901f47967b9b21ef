package provider

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"aimux/config"
	"aimux/session"
)

// stopGracePeriod is how long Stop waits for the child to exit on its own
// (stdin closed, SIGTERM sent) before killing it.
const stopGracePeriod = 2 * time.Second

// maxResponseLine bounds a single reply line from the child process.
const maxResponseLine = 1024 * 1024

// SubprocessAdapter drives a local CLI backend: one prompt line written to
// the child's stdin, one reply line read from its stdout per send.
//
// A timed-out send abandons the reply without killing the process; the
// stale line, if it ever arrives, is discarded at the start of the next
// send. That is safe because sends on one session are serialized.
type SubprocessAdapter struct {
	cfg config.ProviderConfig

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	lines   chan string
	exited  chan struct{}
	stopped bool
}

func NewSubprocessAdapter(cfg config.ProviderConfig) *SubprocessAdapter {
	return &SubprocessAdapter{cfg: cfg}
}

// Start locates the executable, spawns it with the configured arguments and
// environment, and confirms it came up. Nothing is leaked on failure.
func (a *SubprocessAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cmd != nil {
		return fmt.Errorf("%w: process already started", ErrStartFailed)
	}

	path, err := exec.LookPath(a.cfg.Command)
	if err != nil {
		return fmt.Errorf("%w: %s not found on PATH", ErrUnavailable, a.cfg.Command)
	}

	cmd := exec.Command(path, a.cfg.Args...)
	cmd.Env = mergedEnv(a.cfg.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrStartFailed, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return fmt.Errorf("%w: stdout pipe: %v", ErrStartFailed, err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	lines := make(chan string, 16)
	exited := make(chan struct{})

	go func() {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxResponseLine)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
		cmd.Wait()
		close(exited)
	}()

	// Catch immediate exits (bad arguments, missing model, etc.)
	select {
	case <-exited:
		stdin.Close()
		return fmt.Errorf("%w: %s exited immediately", ErrStartFailed, a.cfg.Command)
	default:
	}

	a.cmd = cmd
	a.stdin = stdin
	a.lines = lines
	a.exited = exited

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Started subprocess %s (PID %d)", a.cfg.Command, cmd.Process.Pid)
	}

	return nil
}

// Send writes one prompt line and waits for one reply line, bounded by the
// provider's configured timeout.
func (a *SubprocessAdapter) Send(ctx context.Context, prompt string, history []session.Turn) (string, error) {
	a.mu.Lock()
	if a.stopped || a.cmd == nil {
		a.mu.Unlock()
		return "", fatal(fmt.Errorf("%w: process not running", ErrTransport))
	}
	stdin := a.stdin
	lines := a.lines
	exited := a.exited
	a.mu.Unlock()

	select {
	case <-exited:
		return "", fatal(fmt.Errorf("%w: process exited", ErrTransport))
	default:
	}

	// Discard replies abandoned by earlier timed-out sends.
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				return "", fatal(fmt.Errorf("%w: process closed stdout", ErrTransport))
			}
			continue
		default:
		}
		break
	}

	payload := encodePrompt(prompt, history, a.cfg.HistoryTurns)
	if _, err := io.WriteString(stdin, payload+"\n"); err != nil {
		return "", fatal(fmt.Errorf("%w: write prompt: %v", ErrTransport, err))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()

	select {
	case line, ok := <-lines:
		if !ok {
			return "", fatal(fmt.Errorf("%w: process closed stdout", ErrTransport))
		}
		return line, nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w after %s", ErrTimeout, a.cfg.Timeout())
		}
		return "", ctx.Err()
	}
}

// Stop terminates the child gracefully (stdin closed, SIGTERM), killing it
// after the grace period. Stopping an already-stopped adapter is a no-op.
func (a *SubprocessAdapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.stopped || a.cmd == nil {
		a.stopped = true
		a.mu.Unlock()
		return nil
	}
	a.stopped = true
	cmd := a.cmd
	stdin := a.stdin
	exited := a.exited
	a.mu.Unlock()

	stdin.Close()
	if cmd.Process != nil {
		cmd.Process.Signal(syscall.SIGTERM)
	}

	select {
	case <-exited:
		return nil
	case <-time.After(stopGracePeriod):
	case <-ctx.Done():
	}

	if cmd.Process != nil {
		if err := cmd.Process.Kill(); err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Provider] Error killing %s: %v", a.cfg.Command, err)
			}
		}
	}

	select {
	case <-exited:
	case <-time.After(stopGracePeriod):
	}

	return nil
}

// Available reports whether the executable resolves on PATH. Nothing is
// spawned.
func (a *SubprocessAdapter) Available(ctx context.Context) bool {
	_, err := exec.LookPath(a.cfg.Command)
	return err == nil
}

// encodePrompt flattens the prompt, and optionally the last historyTurns
// prior turns, into a single line. Newlines are escaped to keep the framing
// intact; with historyTurns 0 the child process is assumed to keep its own
// conversational state and receives the bare prompt.
func encodePrompt(prompt string, history []session.Turn, historyTurns int) string {
	if historyTurns <= 0 {
		return escapeLine(prompt)
	}

	start := len(history) - historyTurns
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	for _, turn := range history[start:] {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(escapeLine(turn.Content))
		b.WriteString("\\n")
	}
	b.WriteString(escapeLine(prompt))
	return b.String()
}

func escapeLine(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return strings.ReplaceAll(s, "\r", "")
}

// mergedEnv starts from the current process environment to preserve PATH
// and other system vars, then applies the provider's overrides.
func mergedEnv(overrides map[string]string) []string {
	env := os.Environ()
	for k, v := range overrides {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
