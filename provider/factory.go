// Package provider implements the backend adapters behind the
// session.Adapter contract.
//
// Two transport kinds exist and the rest of the system never branches on
// them: SubprocessAdapter drives a local CLI tool over stdin/stdout with a
// line-oriented prompt/reply protocol, HTTPAdapter performs one
// chat-completion round-trip per send. The HTTP side speaks three API
// dialects (openai, anthropic, ollama) behind a small internal chat-client
// interface; the dialect is a configuration detail, not a third transport.
//
// # Usage
//
//	adapter, err := provider.New(cfg)
//	if err != nil {
//	    // bad configuration
//	}
//	if err := adapter.Start(ctx); err != nil {
//	    // provider.ErrUnavailable or provider.ErrStartFailed
//	}
//	reply, err := adapter.Send(ctx, "hello", history)
package provider

import (
	"fmt"

	"aimux/config"
	"aimux/session"
)

// New creates the adapter variant for the record's transport kind. It only
// constructs; no process is spawned and no connection is probed until
// Start.
func New(cfg config.ProviderConfig) (session.Adapter, error) {
	switch cfg.Transport {
	case config.TransportSubprocess:
		return NewSubprocessAdapter(cfg), nil
	case config.TransportHTTP:
		return NewHTTPAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transport kind: %s", cfg.Transport)
	}
}
