package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"aimux/config"
	"aimux/session"
)

// openaiChat speaks the chat-completions dialect via the official OpenAI Go
// SDK. It also serves any OpenAI-compatible endpoint (OpenRouter, vLLM,
// llama.cpp server) pointed at by the provider's endpoint.
type openaiChat struct {
	client openai.Client
	cfg    config.ProviderConfig
}

func newOpenAIChat(cfg config.ProviderConfig) *openaiChat {
	client := openai.NewClient(
		option.WithBaseURL(cfg.Endpoint),
		option.WithAPIKey(cfg.ResolveAPIKey()),
	)
	return &openaiChat{client: client, cfg: cfg}
}

func (c *openaiChat) complete(ctx context.Context, history []session.Turn, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.cfg.Model),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}
	if c.cfg.Temperature > 0 {
		params.Temperature = openai.Float(c.cfg.Temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", classifyStatus(apierr.StatusCode, err)
		}
		return "", classifyNoStatus(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", ErrMalformedResponse)
	}

	return resp.Choices[0].Message.Content, nil
}

func (c *openaiChat) ping(ctx context.Context) error {
	_, err := c.client.Models.List(ctx)
	return err
}
