package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aimux/config"
	"aimux/orchestrator"
	"aimux/storage"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

const usage = `aimux %s - multiplex conversational sessions across AI providers

Usage:
  aimux                         interactive shell
  aimux providers               list configured providers and availability
  aimux ask [provider] MESSAGE  one round-trip against a provider
  aimux version                 print version

Configuration lives in ~/.config/aimux/settings.toml and
<data_dir>/config.toml. Both are created with commented defaults on
first run.
`

func main() {
	args := os.Args[1:]

	if len(args) > 0 {
		switch args[0] {
		case "version", "-v", "--version":
			fmt.Printf("aimux %s (%s)\n", Version, License)
			return
		case "help", "-h", "--help":
			fmt.Printf(usage, Version)
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	journal, err := storage.NewJournal(cfg.DataDir())
	if err != nil {
		// The journal is an operational aid, not a dependency; run without it.
		fmt.Fprintf(os.Stderr, "Warning: session journal disabled: %v\n", err)
		journal = nil
	}

	var recorder orchestrator.Recorder
	if journal != nil {
		recorder = journal
		defer journal.Close()
	}

	orch := orchestrator.New(cfg.Providers, recorder)

	watcher, err := config.WatchUserConfig(cfg.DataDir(), func(userCfg *config.UserConfig) {
		orch.ReloadProviders(userCfg.Providers)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config watching disabled: %v\n", err)
	} else {
		defer watcher.Close()
	}

	ctx := context.Background()

	exitCode := 0
	if len(args) == 0 {
		exitCode = runInteractive(ctx, orch, cfg)
	} else {
		exitCode = runCommand(ctx, orch, cfg, args)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	orch.StopAll(stopCtx)
	cancel()

	os.Exit(exitCode)
}

func runCommand(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config, args []string) int {
	switch args[0] {
	case "providers":
		printProviders(ctx, orch)
		return 0

	case "ask":
		rest := args[1:]
		providerName := cfg.DefaultProvider
		if len(rest) > 0 && cfg.Provider(rest[0]) != nil {
			providerName = rest[0]
			rest = rest[1:]
		}
		if providerName == "" {
			fmt.Fprintln(os.Stderr, "No provider given and no default_provider configured")
			return 1
		}
		if len(rest) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: aimux ask [provider] MESSAGE")
			return 1
		}
		return askOnce(ctx, orch, providerName, strings.Join(rest, " "))

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", args[0])
		fmt.Fprintf(os.Stderr, usage, Version)
		return 1
	}
}

// askOnce runs a full start/send/stop cycle against one provider.
func askOnce(ctx context.Context, orch *orchestrator.Orchestrator, providerName, message string) int {
	id, err := orch.StartSession(ctx, providerName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start %s: %v\n", providerName, err)
		return 1
	}
	defer orch.StopSession(ctx, id)

	reply, err := orch.SendMessage(ctx, id, message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Send failed: %v\n", err)
		return 1
	}

	fmt.Println(reply)
	return 0
}

const replHelp = `Commands:
  providers                 list configured providers and availability
  sessions                  list live sessions
  start [provider]          start a session (default provider if omitted)
  send ID MESSAGE           send a message on a session
  history ID                print a session's conversation
  search ID QUERY           fuzzy-search a session's conversation
  stop ID                   stop a session
  stop-all                  stop every session
  quit                      stop all sessions and exit
`

func runInteractive(ctx context.Context, orch *orchestrator.Orchestrator, cfg *config.Config) int {
	fmt.Printf("aimux %s - type 'help' for commands\n", Version)

	// Ctrl-C tears sessions down instead of leaving subprocesses behind.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping sessions...")
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		orch.StopAll(stopCtx)
		cancel()
		os.Exit(0)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return 0
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		cmd, rest := splitCommand(line)
		switch cmd {
		case "help":
			fmt.Print(replHelp)

		case "providers":
			printProviders(ctx, orch)

		case "sessions":
			printSessions(orch)

		case "start":
			name := rest
			if name == "" {
				name = cfg.DefaultProvider
			}
			if name == "" {
				fmt.Println("Usage: start PROVIDER (no default_provider configured)")
				continue
			}
			id, err := orch.StartSession(ctx, name)
			if err != nil {
				fmt.Printf("Failed to start %s: %v\n", name, err)
				continue
			}
			fmt.Printf("Started session %s (%s)\n", id, name)

		case "send":
			id, message := splitCommand(rest)
			if id == "" || message == "" {
				fmt.Println("Usage: send ID MESSAGE")
				continue
			}
			reply, err := orch.SendMessage(ctx, id, message)
			if err != nil {
				fmt.Printf("Send failed: %v\n", err)
				continue
			}
			fmt.Println(reply)

		case "history":
			if rest == "" {
				fmt.Println("Usage: history ID")
				continue
			}
			turns, err := orch.History(rest)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if len(turns) == 0 {
				fmt.Println("(empty)")
				continue
			}
			for _, turn := range turns {
				fmt.Printf("[%s] %s: %s\n",
					turn.Timestamp.Format("15:04:05"), turn.Role, turn.Content)
			}

		case "search":
			id, query := splitCommand(rest)
			if id == "" || query == "" {
				fmt.Println("Usage: search ID QUERY")
				continue
			}
			matches, err := orch.SearchHistory(id, query)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				continue
			}
			if len(matches) == 0 {
				fmt.Println("No matches")
				continue
			}
			for _, m := range matches {
				fmt.Printf("#%d %s: %s\n", m.TurnIndex, m.Turn.Role, m.Preview)
			}

		case "stop":
			if rest == "" {
				fmt.Println("Usage: stop ID")
				continue
			}
			orch.StopSession(ctx, rest)
			fmt.Printf("Stopped %s\n", rest)

		case "stop-all":
			n := orch.StopAll(ctx)
			fmt.Printf("Stopped %d session(s)\n", n)

		case "quit", "exit":
			return 0

		default:
			fmt.Printf("Unknown command %q - type 'help' for commands\n", cmd)
		}
	}
}

// splitCommand splits off the first whitespace-delimited word, leaving the
// remainder intact so message text keeps its internal spacing.
func splitCommand(line string) (string, string) {
	parts := strings.SplitN(strings.TrimSpace(line), " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

func printProviders(ctx context.Context, orch *orchestrator.Orchestrator) {
	statuses := orch.ListProviders(ctx)
	if len(statuses) == 0 {
		fmt.Println("No providers configured")
		return
	}
	for _, s := range statuses {
		state := "unavailable"
		if s.Available {
			state = "available"
		}
		fmt.Printf("  %-20s %-12s %s\n", s.Name, s.Transport, state)
	}
}

func printSessions(orch *orchestrator.Orchestrator) {
	sessions := orch.ListSessions()
	if len(sessions) == 0 {
		fmt.Println("No live sessions")
		return
	}
	for _, s := range sessions {
		fmt.Printf("  %s  %-20s %-9s %d turn(s), last activity %s\n",
			s.ID, s.Provider, s.Status, s.TurnCount,
			s.LastActivity.Format("15:04:05"))
	}
}
