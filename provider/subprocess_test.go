package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"aimux/config"
	"aimux/session"
)

// cat echoes each stdin line to stdout unchanged, which makes it a perfect
// line-protocol backend for round-trip tests.
func catConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Name:           "echo",
		Transport:      config.TransportSubprocess,
		Command:        "cat",
		TimeoutSeconds: 5,
	}
}

func TestSubprocessRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewSubprocessAdapter(catConfig())

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop(ctx)

	reply, err := a.Send(ctx, "hello world", nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != "hello world" {
		t.Errorf("Send() = %q, want %q", reply, "hello world")
	}

	// The process stays up across sends
	reply, err = a.Send(ctx, "second", nil)
	if err != nil {
		t.Fatalf("second Send() error = %v", err)
	}
	if reply != "second" {
		t.Errorf("second Send() = %q, want %q", reply, "second")
	}
}

func TestSubprocessEscapesNewlines(t *testing.T) {
	ctx := context.Background()
	a := NewSubprocessAdapter(catConfig())

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop(ctx)

	// A multi-line prompt must still be one request line and one reply line
	reply, err := a.Send(ctx, "line one\nline two", nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != `line one\nline two` {
		t.Errorf("Send() = %q, want escaped single line", reply)
	}
}

func TestSubprocessStartCommandNotFound(t *testing.T) {
	cfg := catConfig()
	cfg.Command = "aimux-no-such-binary"
	a := NewSubprocessAdapter(cfg)

	err := a.Start(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Start() error = %v, want ErrUnavailable", err)
	}

	if a.Available(context.Background()) {
		t.Error("Available() = true for a missing command")
	}
}

func TestSubprocessSendTimeout(t *testing.T) {
	// sleep never reads stdin and never answers, so the send must time out
	cfg := config.ProviderConfig{
		Name:           "silent",
		Transport:      config.TransportSubprocess,
		Command:        "sleep",
		Args:           []string{"30"},
		TimeoutSeconds: 1,
	}
	a := NewSubprocessAdapter(cfg)

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop(ctx)

	start := time.Now()
	_, err := a.Send(ctx, "anyone there", nil)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Send() error = %v, want ErrTimeout", err)
	}
	if IsFatal(err) {
		t.Error("timeout must not be fatal")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout took %v, want about 1s", elapsed)
	}
}

func TestSubprocessDiscardsStaleReply(t *testing.T) {
	// This backend answers each prompt twice; the extra line must not be
	// mistaken for the reply to the following send.
	cfg := config.ProviderConfig{
		Name:           "chatty",
		Transport:      config.TransportSubprocess,
		Command:        "sh",
		Args:           []string{"-c", `while read l; do echo "$l"; echo stale; done`},
		TimeoutSeconds: 5,
	}
	a := NewSubprocessAdapter(cfg)

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop(ctx)

	reply, err := a.Send(ctx, "first", nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if reply != "first" {
		t.Errorf("Send() = %q, want %q", reply, "first")
	}

	// Give the stray line time to land in the reader
	time.Sleep(100 * time.Millisecond)

	reply, err = a.Send(ctx, "second", nil)
	if err != nil {
		t.Fatalf("second Send() error = %v", err)
	}
	if reply != "second" {
		t.Errorf("second Send() = %q, stale line was not discarded", reply)
	}
}

func TestSubprocessSendAfterExit(t *testing.T) {
	// This backend answers once and exits
	cfg := config.ProviderConfig{
		Name:           "oneshot",
		Transport:      config.TransportSubprocess,
		Command:        "sh",
		Args:           []string{"-c", `read l; echo "$l"`},
		TimeoutSeconds: 5,
	}
	a := NewSubprocessAdapter(cfg)

	ctx := context.Background()
	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer a.Stop(ctx)

	if _, err := a.Send(ctx, "only", nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	// Let the exit propagate
	time.Sleep(100 * time.Millisecond)

	_, err := a.Send(ctx, "too late", nil)
	if err == nil {
		t.Fatal("Send() after process exit succeeded")
	}
	if !IsFatal(err) {
		t.Errorf("Send() after process exit = %v, want fatal", err)
	}
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Send() after process exit = %v, want ErrTransport", err)
	}
}

func TestSubprocessStopIdempotent(t *testing.T) {
	ctx := context.Background()
	a := NewSubprocessAdapter(catConfig())

	if err := a.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := a.Stop(ctx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := a.Stop(ctx); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}

	_, err := a.Send(ctx, "hello", nil)
	if !IsFatal(err) {
		t.Errorf("Send() after Stop = %v, want fatal", err)
	}
}

func TestEncodePrompt(t *testing.T) {
	history := []session.Turn{
		session.UserTurn("one"),
		session.AssistantTurn("two"),
		session.UserTurn("three"),
	}

	tests := []struct {
		name         string
		prompt       string
		history      []session.Turn
		historyTurns int
		want         string
	}{
		{
			name:   "no history replay",
			prompt: "hello",
			want:   "hello",
		},
		{
			name:   "newline escaped",
			prompt: "a\nb",
			want:   `a\nb`,
		},
		{
			name:   "backslash escaped before newline",
			prompt: `a\n`,
			want:   `a\\n`,
		},
		{
			name:   "carriage return stripped",
			prompt: "a\r\nb",
			want:   `a\nb`,
		},
		{
			name:         "history ignored when turns is zero",
			prompt:       "hello",
			history:      history,
			historyTurns: 0,
			want:         "hello",
		},
		{
			name:         "last n turns replayed with roles",
			prompt:       "next",
			history:      history,
			historyTurns: 2,
			want:         `assistant: two\nuser: three\nnext`,
		},
		{
			name:         "turns capped at history length",
			prompt:       "next",
			history:      history[:1],
			historyTurns: 10,
			want:         `user: one\nnext`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodePrompt(tt.prompt, tt.history, tt.historyTurns)
			if got != tt.want {
				t.Errorf("encodePrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}
