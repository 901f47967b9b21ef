package config

import (
	"testing"
	"time"
)

func TestProviderConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		config      ProviderConfig
		expectError bool
	}{
		{
			name: "valid subprocess provider",
			config: ProviderConfig{
				Name:      "gemini",
				Transport: TransportSubprocess,
				Command:   "gemini",
			},
			expectError: false,
		},
		{
			name: "valid http provider",
			config: ProviderConfig{
				Name:      "ollama",
				Transport: TransportHTTP,
				Endpoint:  "http://localhost:11434",
				APIFormat: APIFormatOllama,
			},
			expectError: false,
		},
		{
			name: "http provider with default api format",
			config: ProviderConfig{
				Name:      "local",
				Transport: TransportHTTP,
				Endpoint:  "http://localhost:8080/v1",
			},
			expectError: false,
		},
		{
			name: "missing name",
			config: ProviderConfig{
				Transport: TransportSubprocess,
				Command:   "gemini",
			},
			expectError: true,
		},
		{
			name: "subprocess without command",
			config: ProviderConfig{
				Name:      "gemini",
				Transport: TransportSubprocess,
			},
			expectError: true,
		},
		{
			name: "http without endpoint",
			config: ProviderConfig{
				Name:      "ollama",
				Transport: TransportHTTP,
			},
			expectError: true,
		},
		{
			name: "missing transport",
			config: ProviderConfig{
				Name:    "gemini",
				Command: "gemini",
			},
			expectError: true,
		},
		{
			name: "unknown transport",
			config: ProviderConfig{
				Name:      "gemini",
				Transport: "grpc",
			},
			expectError: true,
		},
		{
			name: "unknown api format",
			config: ProviderConfig{
				Name:      "ollama",
				Transport: TransportHTTP,
				Endpoint:  "http://localhost:11434",
				APIFormat: "soap",
			},
			expectError: true,
		},
		{
			name: "temperature out of range",
			config: ProviderConfig{
				Name:        "ollama",
				Transport:   TransportHTTP,
				Endpoint:    "http://localhost:11434",
				APIFormat:   APIFormatOllama,
				Temperature: 3.5,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateProvidersRejectsDuplicates(t *testing.T) {
	providers := []ProviderConfig{
		{Name: "ollama", Transport: TransportHTTP, Endpoint: "http://localhost:11434", APIFormat: APIFormatOllama},
		{Name: "ollama", Transport: TransportSubprocess, Command: "ollama"},
	}

	if err := ValidateProviders(providers); err == nil {
		t.Error("expected duplicate name error, got nil")
	}
}

func TestTimeoutDefault(t *testing.T) {
	p := ProviderConfig{}
	if got := p.Timeout(); got != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s default", got)
	}

	p.TimeoutSeconds = 5
	if got := p.Timeout(); got != 5*time.Second {
		t.Errorf("Timeout() = %v, want 5s", got)
	}
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("AIMUX_TEST_KEY", "from-env")

	tests := []struct {
		name   string
		config ProviderConfig
		want   string
	}{
		{"inline key only", ProviderConfig{APIKey: "inline"}, "inline"},
		{"env var preferred over inline", ProviderConfig{APIKey: "inline", APIKeyEnv: "AIMUX_TEST_KEY"}, "from-env"},
		{"unset env var falls back to inline", ProviderConfig{APIKey: "inline", APIKeyEnv: "AIMUX_TEST_KEY_UNSET"}, "inline"},
		{"nothing configured", ProviderConfig{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.config.ResolveAPIKey(); got != tt.want {
				t.Errorf("ResolveAPIKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolvedAPIFormatDefault(t *testing.T) {
	p := ProviderConfig{}
	if got := p.ResolvedAPIFormat(); got != APIFormatOpenAI {
		t.Errorf("ResolvedAPIFormat() = %q, want %q", got, APIFormatOpenAI)
	}

	p.APIFormat = APIFormatAnthropic
	if got := p.ResolvedAPIFormat(); got != APIFormatAnthropic {
		t.Errorf("ResolvedAPIFormat() = %q, want %q", got, APIFormatAnthropic)
	}
}
