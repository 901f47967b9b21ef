// Package orchestrator is the public entry point for driving concurrent
// conversational sessions against configured AI backends.
//
// It owns the session registry, resolves provider records to transport
// adapters, enforces per-request timeouts, serializes traffic within a
// session and lets traffic across sessions run in parallel. External
// surfaces (CLI, REPL, editor glue) only ever construct requests and render
// results through the operations here.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"aimux/config"
	"aimux/provider"
	"aimux/session"
)

// ErrUnknownProvider is returned when a session start references a provider
// name with no configuration record.
var ErrUnknownProvider = errors.New("unknown provider")

// Recorder receives session lifecycle events. storage.Journal implements
// it; a nil recorder disables journaling.
type Recorder interface {
	Record(sessionID, providerName, event string, turnCount int)
}

// Journal event names.
const (
	EventStarted = "started"
	EventSend    = "send"
	EventFailed  = "failed"
	EventStopped = "stopped"
)

// ProviderStatus is one row of a provider listing.
type ProviderStatus struct {
	Name      string
	Transport string
	Available bool
}

// Orchestrator manages every live session in the process. All operations
// are safe to invoke concurrently from multiple callers.
type Orchestrator struct {
	mu        sync.RWMutex
	providers []config.ProviderConfig

	registry *session.Registry
	recorder Recorder

	// newAdapter is the adapter factory, replaceable in tests.
	newAdapter func(config.ProviderConfig) (session.Adapter, error)
}

// New creates an orchestrator over the given provider records. recorder may
// be nil.
func New(providers []config.ProviderConfig, recorder Recorder) *Orchestrator {
	return &Orchestrator{
		providers:  providers,
		registry:   session.NewRegistry(),
		recorder:   recorder,
		newAdapter: provider.New,
	}
}

func (o *Orchestrator) record(sessionID, providerName, event string, turnCount int) {
	if o.recorder != nil {
		o.recorder.Record(sessionID, providerName, event, turnCount)
	}
}

// lookupProvider returns a copy of the record for name.
func (o *Orchestrator) lookupProvider(name string) (config.ProviderConfig, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, p := range o.providers {
		if p.Name == name {
			return p, nil
		}
	}
	return config.ProviderConfig{}, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// ReloadProviders swaps the provider table. Live sessions keep the adapter
// they were started with; the new records apply to sessions started
// afterwards.
func (o *Orchestrator) ReloadProviders(providers []config.ProviderConfig) {
	o.mu.Lock()
	o.providers = providers
	o.mu.Unlock()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] Provider table reloaded (%d records)", len(providers))
	}
}

// ListProviders probes every configured provider and reports availability
// in configuration order. Probes run in parallel and never start a session;
// a failed probe shows up as unavailable rather than an error.
func (o *Orchestrator) ListProviders(ctx context.Context) []ProviderStatus {
	o.mu.RLock()
	providers := make([]config.ProviderConfig, len(o.providers))
	copy(providers, o.providers)
	o.mu.RUnlock()

	statuses := make([]ProviderStatus, len(providers))
	var wg sync.WaitGroup

	for i, p := range providers {
		statuses[i] = ProviderStatus{Name: p.Name, Transport: p.Transport}

		wg.Add(1)
		go func(i int, p config.ProviderConfig) {
			defer wg.Done()
			adapter, err := o.newAdapter(p)
			if err != nil {
				return
			}
			statuses[i].Available = adapter.Available(ctx)
		}(i, p)
	}

	wg.Wait()
	return statuses
}

// StartSession resolves the provider record, builds and starts the matching
// adapter variant and registers a fresh session. A start failure leaves no
// registry entry and no half-started backend resource behind.
func (o *Orchestrator) StartSession(ctx context.Context, providerName string) (string, error) {
	cfg, err := o.lookupProvider(providerName)
	if err != nil {
		return "", err
	}

	adapter, err := o.newAdapter(cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", provider.ErrStartFailed, err)
	}

	if err := adapter.Start(ctx); err != nil {
		// Release anything a partial start may have acquired.
		adapter.Stop(context.WithoutCancel(ctx))
		return "", err
	}

	sess := o.registry.Create(cfg.Name, adapter)
	sess.Activate()

	o.record(sess.ID, cfg.Name, EventStarted, 0)

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] Started session %s with provider %s", sess.ID, cfg.Name)
	}

	return sess.ID, nil
}

// SendMessage performs one round-trip on the session. Calls on the same
// session are serialized so turns land in call order; calls on different
// sessions never block each other.
//
// The user turn is appended before the adapter call and retained even when
// the call fails, so the attempt is recorded. The assistant turn is
// appended only on success. A transport-fatal failure moves the session to
// failed; timeouts and malformed replies leave it active.
func (o *Orchestrator) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	sess, err := o.registry.Get(sessionID)
	if err != nil {
		return "", err
	}

	sess.LockSend()
	defer sess.UnlockSend()

	if err := sess.RequireActive(); err != nil {
		return "", err
	}

	prior := sess.History.All()
	sess.History.Append(session.UserTurn(text))
	sess.Touch()

	reply, err := sess.Adapter.Send(ctx, text, prior)
	if err != nil {
		if provider.IsFatal(err) && sess.MarkFailed() {
			o.record(sess.ID, sess.Provider, EventFailed, sess.History.Len())
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Orchestrator] Session %s failed: %v", sess.ID, err)
			}
		}
		return "", err
	}

	sess.History.Append(session.AssistantTurn(reply))
	sess.Touch()

	o.record(sess.ID, sess.Provider, EventSend, sess.History.Len())

	return reply, nil
}

// History returns the session's turns in append order.
func (o *Orchestrator) History(sessionID string) ([]session.Turn, error) {
	sess, err := o.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History.All(), nil
}

// SearchHistory fuzzy-matches query against the session's turns.
func (o *Orchestrator) SearchHistory(sessionID, query string) ([]session.TurnMatch, error) {
	sess, err := o.registry.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.History.Search(query), nil
}

// ListSessions returns metadata snapshots of all live sessions, oldest
// first.
func (o *Orchestrator) ListSessions() []session.Metadata {
	sessions := o.registry.List()
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
	return sessions
}

// StopSession tears the session down and removes it from the registry.
// Idempotent: stopping an unknown or already-stopping id is a no-op.
// Adapter teardown errors are logged, never surfaced.
func (o *Orchestrator) StopSession(ctx context.Context, sessionID string) {
	o.stopSession(ctx, sessionID)
}

// stopSession reports whether this call actually performed the stop.
func (o *Orchestrator) stopSession(ctx context.Context, sessionID string) bool {
	sess, err := o.registry.Get(sessionID)
	if err != nil {
		return false
	}

	if !sess.BeginStop() {
		return false
	}

	if err := sess.Adapter.Stop(ctx); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Orchestrator] Error stopping session %s: %v", sess.ID, err)
		}
	}

	sess.FinishStop()
	o.registry.Remove(sess.ID)

	o.record(sess.ID, sess.Provider, EventStopped, sess.History.Len())

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] Stopped session %s", sess.ID)
	}

	return true
}

// StopAll stops every session registered when the call begins, in
// parallel, best-effort. Sessions started while it runs are not guaranteed
// to be stopped. Returns the number of sessions this call stopped.
func (o *Orchestrator) StopAll(ctx context.Context) int {
	ids := o.registry.ListIDs()

	var stopped int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if o.stopSession(ctx, id) {
				atomic.AddInt32(&stopped, 1)
			}
		}(id)
	}
	wg.Wait()

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Orchestrator] StopAll finished (%d sessions)", stopped)
	}

	return int(stopped)
}
