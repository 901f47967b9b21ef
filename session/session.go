package session

import (
	"errors"
	"sync"
	"time"
)

// ErrNotActive is returned when an operation requires an active session but
// the session is starting, stopping, stopped or failed.
var ErrNotActive = errors.New("session is not active")

// Status is the lifecycle state of a session.
//
// Transitions: starting → active → (stopping → stopped) | failed. Failed is
// reached only from active, on a transport-fatal send error. A failed
// session still answers history reads until it is stopped and removed.
type Status string

const (
	StatusStarting Status = "starting"
	StatusActive   Status = "active"
	StatusStopping Status = "stopping"
	StatusStopped  Status = "stopped"
	StatusFailed   Status = "failed"
)

// Session is one ongoing conversation bound to exactly one provider and one
// adapter instance. The adapter is exclusively owned by its session.
type Session struct {
	ID        string
	Provider  string
	Adapter   Adapter
	History   *History
	CreatedAt time.Time

	mu           sync.Mutex
	status       Status
	lastActivity time.Time

	// sendMu serializes message round-trips on this session so turns land
	// in call order. Sessions never share it, so sends on different
	// sessions run in parallel.
	sendMu sync.Mutex
}

func newSession(id, provider string, adapter Adapter) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Provider:     provider,
		Adapter:      adapter,
		History:      NewHistory(),
		CreatedAt:    now,
		status:       StatusStarting,
		lastActivity: now,
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// Touch updates the last-activity time.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// Activate moves the session from starting to active.
func (s *Session) Activate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusStarting {
		s.status = StatusActive
	}
}

// RequireActive returns ErrNotActive unless the session is active.
func (s *Session) RequireActive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return ErrNotActive
	}
	return nil
}

// MarkFailed moves an active session to failed. Reports whether the
// transition happened; a session already stopping or stopped stays put.
func (s *Session) MarkFailed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusActive {
		return false
	}
	s.status = StatusFailed
	return true
}

// BeginStop moves the session to stopping. Reports false if a stop is
// already underway or complete, making stop paths idempotent.
func (s *Session) BeginStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusStopping || s.status == StatusStopped {
		return false
	}
	s.status = StatusStopping
	return true
}

// FinishStop marks the session stopped after its adapter is released.
func (s *Session) FinishStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusStopped
}

// LockSend acquires the per-session send serialization lock.
func (s *Session) LockSend() { s.sendMu.Lock() }

// UnlockSend releases the per-session send serialization lock.
func (s *Session) UnlockSend() { s.sendMu.Unlock() }

// Metadata is a point-in-time snapshot of a session for listings.
type Metadata struct {
	ID           string
	Provider     string
	Status       Status
	CreatedAt    time.Time
	LastActivity time.Time
	TurnCount    int
}

// Snapshot captures the session's listing metadata.
func (s *Session) Snapshot() Metadata {
	s.mu.Lock()
	status := s.status
	lastActivity := s.lastActivity
	s.mu.Unlock()

	return Metadata{
		ID:           s.ID,
		Provider:     s.Provider,
		Status:       status,
		CreatedAt:    s.CreatedAt,
		LastActivity: lastActivity,
		TurnCount:    s.History.Len(),
	}
}
