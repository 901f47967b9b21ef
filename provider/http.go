package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"aimux/config"
	"aimux/session"
)

// probeTimeout bounds the best-effort reachability checks used by Start and
// Available.
const probeTimeout = 5 * time.Second

// chatClient is one HTTP API dialect. Implementations map their SDK errors
// into the package taxonomy themselves, since status extraction differs per
// SDK.
type chatClient interface {
	// complete performs one chat-completion round-trip carrying the full
	// prior history plus the new prompt.
	complete(ctx context.Context, history []session.Turn, prompt string) (string, error)

	// ping is a cheap reachability probe.
	ping(ctx context.Context) error
}

// HTTPAdapter performs one chat-completion request per send against a
// remote endpoint. The backend is stateless, so the full conversation
// history is replayed on every call.
type HTTPAdapter struct {
	cfg config.ProviderConfig

	mu      sync.Mutex
	client  chatClient
	stopped bool
}

func NewHTTPAdapter(cfg config.ProviderConfig) *HTTPAdapter {
	return &HTTPAdapter{cfg: cfg}
}

// Start validates the endpoint and credentials and probes reachability.
func (a *HTTPAdapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return fmt.Errorf("%w: already started", ErrStartFailed)
	}

	if a.cfg.Endpoint == "" {
		return fmt.Errorf("%w: no endpoint configured", ErrUnavailable)
	}
	if keyRequired(a.cfg.ResolvedAPIFormat()) && a.cfg.ResolveAPIKey() == "" {
		return fmt.Errorf("%w: %s requires an API key", ErrUnavailable, a.cfg.ResolvedAPIFormat())
	}

	client, err := newChatClient(a.cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if err := client.ping(probeCtx); err != nil {
		return fmt.Errorf("%w: endpoint %s not reachable: %v", ErrUnavailable, a.cfg.Endpoint, err)
	}

	a.client = client

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Connected to %s endpoint %s (%s)",
			a.cfg.Name, a.cfg.Endpoint, a.cfg.ResolvedAPIFormat())
	}

	return nil
}

// Send issues one chat-completion request bounded by the provider's
// configured timeout.
func (a *HTTPAdapter) Send(ctx context.Context, prompt string, history []session.Turn) (string, error) {
	a.mu.Lock()
	client := a.client
	stopped := a.stopped
	a.mu.Unlock()

	if stopped || client == nil {
		return "", fatal(fmt.Errorf("%w: adapter not started", ErrTransport))
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()

	reply, err := client.complete(ctx, history, prompt)
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Stop releases the client. Idempotent.
func (a *HTTPAdapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	a.client = nil
	return nil
}

// Available reports whether the endpoint is configured, credentialed where
// required, and answering the probe.
func (a *HTTPAdapter) Available(ctx context.Context) bool {
	if a.cfg.Endpoint == "" {
		return false
	}
	if keyRequired(a.cfg.ResolvedAPIFormat()) && a.cfg.ResolveAPIKey() == "" {
		return false
	}

	client, err := newChatClient(a.cfg)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return client.ping(ctx) == nil
}

// newChatClient builds the dialect client for the record's api_format.
func newChatClient(cfg config.ProviderConfig) (chatClient, error) {
	switch cfg.ResolvedAPIFormat() {
	case config.APIFormatOpenAI:
		return newOpenAIChat(cfg), nil
	case config.APIFormatAnthropic:
		return newAnthropicChat(cfg), nil
	case config.APIFormatOllama:
		return newOllamaChat(cfg)
	default:
		return nil, fmt.Errorf("unknown api format: %s", cfg.APIFormat)
	}
}

// keyRequired reports whether a dialect needs a credential. Ollama is a
// local server with no auth; the cloud dialects reject unauthenticated
// requests outright.
func keyRequired(apiFormat string) bool {
	return apiFormat != config.APIFormatOllama
}

// classifyStatus maps an HTTP status failure: 5xx is a transient transport
// error, anything else non-2xx is a malformed/rejected exchange. Neither is
// fatal; the connection still works.
func classifyStatus(status int, err error) error {
	if status >= 500 {
		return fmt.Errorf("%w: HTTP %d: %v", ErrTransport, status, err)
	}
	return fmt.Errorf("%w: HTTP %d: %v", ErrMalformedResponse, status, err)
}

// classifyNoStatus maps a failure that never produced an HTTP status:
// deadline → timeout, network-level errors → fatal transport (connection
// broken), anything else (undecodable body) → malformed response.
func classifyNoStatus(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return fatal(fmt.Errorf("%w: %v", ErrTransport, err))
	}

	return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
}
