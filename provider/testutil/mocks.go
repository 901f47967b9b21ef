package testutil

import (
	"context"
	"sync/atomic"

	"aimux/session"
)

// MockAdapter implements session.Adapter for testing. Each operation
// delegates to a configurable func field, with defaults that succeed.
type MockAdapter struct {
	StartFunc     func(ctx context.Context) error
	SendFunc      func(ctx context.Context, prompt string, history []session.Turn) (string, error)
	StopFunc      func(ctx context.Context) error
	AvailableFunc func(ctx context.Context) bool

	// Call counters, incremented atomically so tests can assert across
	// goroutines.
	StartCalls int32
	SendCalls  int32
	StopCalls  int32
}

// NewMockAdapter creates a mock whose Send echoes the prompt back doubled,
// mirroring the echo provider used in integration scenarios.
func NewMockAdapter() *MockAdapter {
	m := &MockAdapter{}
	m.StartFunc = func(ctx context.Context) error { return nil }
	m.SendFunc = func(ctx context.Context, prompt string, history []session.Turn) (string, error) {
		return prompt + prompt, nil
	}
	m.StopFunc = func(ctx context.Context) error { return nil }
	m.AvailableFunc = func(ctx context.Context) bool { return true }
	return m
}

func (m *MockAdapter) Start(ctx context.Context) error {
	atomic.AddInt32(&m.StartCalls, 1)
	return m.StartFunc(ctx)
}

func (m *MockAdapter) Send(ctx context.Context, prompt string, history []session.Turn) (string, error) {
	atomic.AddInt32(&m.SendCalls, 1)
	return m.SendFunc(ctx, prompt, history)
}

func (m *MockAdapter) Stop(ctx context.Context) error {
	atomic.AddInt32(&m.StopCalls, 1)
	return m.StopFunc(ctx)
}

func (m *MockAdapter) Available(ctx context.Context) bool {
	return m.AvailableFunc(ctx)
}
