package session

import "context"

// Adapter is the runtime handle for one configured backend, polymorphic
// over the two transport kinds (subprocess and http).
//
// The interface is defined in the session package (not provider) to avoid
// import cycles: adapter implementations need session.Turn, and sessions
// hold their adapter. Same arrangement as keeping a Provider interface in a
// shared model package.
//
// Exactly one adapter backs one session; adapters are never shared and are
// only ever called under the session's send serialization, so
// implementations do not need to be safe for concurrent Send calls.
type Adapter interface {
	// Start acquires the backend resource: spawns the child process or
	// probes the HTTP endpoint. A failed Start must not leak a half-started
	// resource.
	Start(ctx context.Context) error

	// Send performs one prompt/reply round-trip, bounded by the provider's
	// configured timeout. history is the prior conversation, oldest first;
	// how much of it reaches the backend is transport-specific. On timeout
	// the in-flight request is abandoned but the adapter stays usable.
	Send(ctx context.Context, prompt string, history []Turn) (string, error)

	// Stop releases the backend resource. Idempotent: stopping an already
	// stopped adapter is a no-op, never an error.
	Stop(ctx context.Context) error

	// Available reports whether the backend looks reachable without
	// starting anything (executable on PATH, endpoint configured and
	// answering a cheap probe).
	Available(ctx context.Context) bool
}
