package provider

import (
	"errors"
	"fmt"
)

// Failure taxonomy for adapter operations. Callers distinguish failure
// kinds with errors.Is; everything carries wrapped context.
var (
	// ErrUnavailable: the backend is not installed or not reachable.
	// Fatal to starting a session with that provider.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrStartFailed: the availability check passed but constructing the
	// backend resource still failed.
	ErrStartFailed = errors.New("provider start failed")

	// ErrTimeout: the bounded wait on a round-trip expired. Recoverable;
	// the adapter stays usable for the next call.
	ErrTimeout = errors.New("request timed out")

	// ErrTransport: an I/O failure on the round-trip. May be transient
	// (e.g. HTTP 5xx) or fatal; fatal instances are wrapped in FatalError.
	ErrTransport = errors.New("transport error")

	// ErrMalformedResponse: the backend answered with something that could
	// not be used (unparsable body, rejected request). Recoverable.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// FatalError marks a transport failure that leaves the adapter unusable:
// the child process died or the connection is permanently broken. The
// orchestrator moves the session to failed when it sees one.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatal(err error) error {
	return &FatalError{Err: err}
}

// IsFatal reports whether err is a transport-fatal failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
