package provider

import (
	"testing"

	"aimux/config"
	"aimux/session"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      config.ProviderConfig
		expectError bool
	}{
		{
			name: "subprocess transport",
			config: config.ProviderConfig{
				Name:      "gemini",
				Transport: config.TransportSubprocess,
				Command:   "gemini",
			},
			expectError: false,
		},
		{
			name: "http transport",
			config: config.ProviderConfig{
				Name:      "ollama",
				Transport: config.TransportHTTP,
				Endpoint:  "http://localhost:11434",
				APIFormat: config.APIFormatOllama,
			},
			expectError: false,
		},
		{
			name: "unknown transport",
			config: config.ProviderConfig{
				Name:      "bad",
				Transport: "carrier-pigeon",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := New(tt.config)

			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.expectError && adapter == nil {
				t.Error("expected non-nil adapter")
			}

			if !tt.expectError && adapter != nil {
				var _ session.Adapter = adapter
			}
		})
	}
}

func TestNewDispatchesByTransport(t *testing.T) {
	sub, err := New(config.ProviderConfig{
		Name: "s", Transport: config.TransportSubprocess, Command: "cat",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := sub.(*SubprocessAdapter); !ok {
		t.Errorf("subprocess transport built %T", sub)
	}

	httpA, err := New(config.ProviderConfig{
		Name: "h", Transport: config.TransportHTTP, Endpoint: "http://localhost:1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := httpA.(*HTTPAdapter); !ok {
		t.Errorf("http transport built %T", httpA)
	}
}
