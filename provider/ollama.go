package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"aimux/config"
	"aimux/session"
)

// ollamaChat speaks Ollama's native chat API via the official client.
type ollamaChat struct {
	client *api.Client
	cfg    config.ProviderConfig
}

func newOllamaChat(cfg config.ProviderConfig) (*ollamaChat, error) {
	parsedURL, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &ollamaChat{
		client: api.NewClient(parsedURL, http.DefaultClient),
		cfg:    cfg,
	}, nil
}

func (c *ollamaChat) complete(ctx context.Context, history []session.Turn, prompt string) (string, error) {
	messages := make([]api.Message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, api.Message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, api.Message{Role: session.RoleUser, Content: prompt})

	stream := false
	req := &api.ChatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   &stream,
		Options:  c.options(),
	}

	var b strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", classifyStatus(statusErr.StatusCode, err)
		}
		return "", classifyNoStatus(err)
	}

	return b.String(), nil
}

func (c *ollamaChat) options() map[string]any {
	opts := map[string]any{}
	if c.cfg.MaxTokens > 0 {
		opts["num_predict"] = c.cfg.MaxTokens
	}
	if c.cfg.Temperature > 0 {
		opts["temperature"] = c.cfg.Temperature
	}
	if len(opts) == 0 {
		return nil
	}
	return opts
}

func (c *ollamaChat) ping(ctx context.Context) error {
	_, err := c.client.List(ctx)
	return err
}
