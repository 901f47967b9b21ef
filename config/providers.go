package config

import (
	"fmt"
	"os"
	"time"
)

// Transport kinds for provider backends.
const (
	TransportSubprocess = "subprocess"
	TransportHTTP       = "http"
)

// HTTP API dialects. An empty APIFormat defaults to "openai", which also
// covers OpenAI-compatible endpoints (OpenRouter, vLLM, llama.cpp server).
const (
	APIFormatOpenAI    = "openai"
	APIFormatAnthropic = "anthropic"
	APIFormatOllama    = "ollama"
)

// ProviderConfig describes one configured AI backend. Records are loaded
// from the [[providers]] array in config.toml and are never mutated by the
// orchestrator.
type ProviderConfig struct {
	Name      string `toml:"name"`
	Transport string `toml:"transport"`

	// Subprocess transport
	Command string            `toml:"command,omitempty"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`

	// HTTP transport
	Endpoint  string `toml:"endpoint,omitempty"`
	APIFormat string `toml:"api_format,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
	APIKeyEnv string `toml:"api_key_env,omitempty"`

	Model          string  `toml:"model,omitempty"`
	MaxTokens      int     `toml:"max_tokens,omitempty"`
	Temperature    float64 `toml:"temperature,omitempty"`
	TimeoutSeconds int     `toml:"timeout_seconds,omitempty"`

	// HistoryTurns controls how many prior turns are replayed to a
	// subprocess backend on each send. 0 means none: the child process is
	// assumed to keep its own conversational state. HTTP backends always
	// receive the full history.
	HistoryTurns int `toml:"history_turns,omitempty"`
}

// Timeout returns the per-request timeout, defaulting to 30s.
func (p *ProviderConfig) Timeout() time.Duration {
	if p.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// ResolveAPIKey returns the API key, preferring the api_key_env variable
// over the inline api_key value.
func (p *ProviderConfig) ResolveAPIKey() string {
	if p.APIKeyEnv != "" {
		if v := os.Getenv(p.APIKeyEnv); v != "" {
			return v
		}
	}
	return p.APIKey
}

// ResolvedAPIFormat returns the HTTP dialect, defaulting to openai.
func (p *ProviderConfig) ResolvedAPIFormat() string {
	if p.APIFormat == "" {
		return APIFormatOpenAI
	}
	return p.APIFormat
}

// Validate checks a single provider record for structural problems.
func (p *ProviderConfig) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("provider has no name")
	}

	switch p.Transport {
	case TransportSubprocess:
		if p.Command == "" {
			return fmt.Errorf("provider %s: subprocess transport requires command", p.Name)
		}
	case TransportHTTP:
		if p.Endpoint == "" {
			return fmt.Errorf("provider %s: http transport requires endpoint", p.Name)
		}
		switch p.ResolvedAPIFormat() {
		case APIFormatOpenAI, APIFormatAnthropic, APIFormatOllama:
		default:
			return fmt.Errorf("provider %s: unknown api_format: %s", p.Name, p.APIFormat)
		}
	case "":
		return fmt.Errorf("provider %s: transport is required", p.Name)
	default:
		return fmt.Errorf("provider %s: unknown transport: %s", p.Name, p.Transport)
	}

	if p.Temperature < 0 || p.Temperature > 2 {
		return fmt.Errorf("provider %s: temperature %v out of range [0, 2]", p.Name, p.Temperature)
	}

	return nil
}

// ValidateProviders validates every record and rejects duplicate names.
func ValidateProviders(providers []ProviderConfig) error {
	seen := make(map[string]bool, len(providers))
	for i := range providers {
		p := &providers[i]
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}
