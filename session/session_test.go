package session

import (
	"errors"
	"testing"
)

func newTestSession() *Session {
	return newSession("test-id", "test-provider", nopAdapter{})
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestSession()

	if s.Status() != StatusStarting {
		t.Fatalf("fresh session status = %s, want %s", s.Status(), StatusStarting)
	}

	s.Activate()
	if s.Status() != StatusActive {
		t.Fatalf("status after Activate = %s, want %s", s.Status(), StatusActive)
	}

	if !s.BeginStop() {
		t.Fatal("BeginStop() = false on an active session")
	}
	if s.Status() != StatusStopping {
		t.Fatalf("status after BeginStop = %s, want %s", s.Status(), StatusStopping)
	}

	s.FinishStop()
	if s.Status() != StatusStopped {
		t.Fatalf("status after FinishStop = %s, want %s", s.Status(), StatusStopped)
	}
}

func TestRequireActive(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*Session)
		expectError bool
	}{
		{"starting", func(s *Session) {}, true},
		{"active", func(s *Session) { s.Activate() }, false},
		{"stopping", func(s *Session) { s.Activate(); s.BeginStop() }, true},
		{"stopped", func(s *Session) { s.Activate(); s.BeginStop(); s.FinishStop() }, true},
		{"failed", func(s *Session) { s.Activate(); s.MarkFailed() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession()
			tt.setup(s)

			err := s.RequireActive()
			if tt.expectError && !errors.Is(err, ErrNotActive) {
				t.Errorf("RequireActive() = %v, want ErrNotActive", err)
			}
			if !tt.expectError && err != nil {
				t.Errorf("RequireActive() = %v, want nil", err)
			}
		})
	}
}

func TestMarkFailedOnlyFromActive(t *testing.T) {
	s := newTestSession()

	// Not yet active
	if s.MarkFailed() {
		t.Error("MarkFailed() = true on a starting session")
	}

	s.Activate()
	if !s.MarkFailed() {
		t.Error("MarkFailed() = false on an active session")
	}
	if s.Status() != StatusFailed {
		t.Errorf("status = %s, want %s", s.Status(), StatusFailed)
	}

	// Second call reports no transition
	if s.MarkFailed() {
		t.Error("MarkFailed() = true on an already failed session")
	}
}

func TestBeginStopIdempotent(t *testing.T) {
	s := newTestSession()
	s.Activate()

	if !s.BeginStop() {
		t.Fatal("first BeginStop() = false")
	}
	if s.BeginStop() {
		t.Error("second BeginStop() = true, stop path would run twice")
	}

	s.FinishStop()
	if s.BeginStop() {
		t.Error("BeginStop() = true on a stopped session")
	}
}

func TestFailedSessionCanBeStopped(t *testing.T) {
	s := newTestSession()
	s.Activate()
	s.MarkFailed()

	if !s.BeginStop() {
		t.Error("BeginStop() = false on a failed session; failed sessions must be stoppable")
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestSession()
	s.Activate()
	s.History.Append(UserTurn("hello"))
	s.History.Append(AssistantTurn("hi"))
	s.Touch()

	meta := s.Snapshot()
	if meta.ID != "test-id" || meta.Provider != "test-provider" {
		t.Errorf("Snapshot() identity = %s/%s", meta.ID, meta.Provider)
	}
	if meta.Status != StatusActive {
		t.Errorf("Snapshot() status = %s, want %s", meta.Status, StatusActive)
	}
	if meta.TurnCount != 2 {
		t.Errorf("Snapshot() turn count = %d, want 2", meta.TurnCount)
	}
	if meta.LastActivity.Before(meta.CreatedAt) {
		t.Error("LastActivity is before CreatedAt after Touch()")
	}
}
