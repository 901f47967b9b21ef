package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"aimux/config"
	"aimux/session"
)

// anthropicDefaultMaxTokens is used when the record leaves max_tokens
// unset; the Messages API requires a value.
const anthropicDefaultMaxTokens = 4096

// anthropicChat speaks the Messages API via the official Anthropic Go SDK.
type anthropicChat struct {
	client anthropic.Client
	cfg    config.ProviderConfig
}

func newAnthropicChat(cfg config.ProviderConfig) *anthropicChat {
	client := anthropic.NewClient(
		option.WithBaseURL(cfg.Endpoint),
		option.WithAPIKey(cfg.ResolveAPIKey()),
	)
	return &anthropicChat{client: client, cfg: cfg}
}

func (c *anthropicChat) complete(ctx context.Context, history []session.Turn, prompt string) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages,
				anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		default:
			messages = append(messages,
				anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	maxTokens := int64(c.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(c.cfg.Temperature)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			return "", classifyStatus(apierr.StatusCode, err)
		}
		return "", classifyNoStatus(err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: no text content in reply", ErrMalformedResponse)
	}

	return b.String(), nil
}

// ping makes a minimal one-token request; the API has no health endpoint.
func (c *anthropicChat) ping(ctx context.Context) error {
	_, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	return err
}
