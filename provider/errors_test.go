package provider

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"plain sentinel", ErrTimeout, false},
		{"wrapped sentinel", fmt.Errorf("%w: after 30s", ErrTimeout), false},
		{"fatal transport", fatal(fmt.Errorf("%w: process exited", ErrTransport)), true},
		{"fatal wrapped further", fmt.Errorf("send: %w", fatal(ErrTransport)), true},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatal(tt.err); got != tt.fatal {
				t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
			}
		})
	}
}

// TestFatalPreservesSentinel verifies errors.Is still sees through the
// fatal wrapper, so callers can both classify the kind and check fatality.
func TestFatalPreservesSentinel(t *testing.T) {
	err := fatal(fmt.Errorf("%w: connection reset", ErrTransport))

	if !errors.Is(err, ErrTransport) {
		t.Error("errors.Is(fatal, ErrTransport) = false")
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("errors.Is(fatal transport, ErrTimeout) = true")
	}
}
