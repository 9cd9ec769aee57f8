package provider

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
AnthropicReasoner answers prompts with a single Messages API call.
*/
type AnthropicReasoner struct {
	client    *anthropic.Client
	Model     string
	MaxTokens int64
}

type AnthropicReasonerOption func(*AnthropicReasoner)

func NewAnthropicReasoner(options ...AnthropicReasonerOption) *AnthropicReasoner {
	prvdr := &AnthropicReasoner{
		Model:     "claude-sonnet-4-20250514",
		MaxTokens: 1024,
	}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *AnthropicReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	message, err := prvdr.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(prvdr.Model),
		MaxTokens: prvdr.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(RenderPrompt(prompt, passages...))),
		},
	})

	if err != nil {
		var apiErr *anthropic.Error

		if errors.As(err, &apiErr) {
			return "", errors.FromStatus("anthropic complete", apiErr.StatusCode, apiErr.Error())
		}

		return "", errors.Transient("anthropic complete", err)
	}

	builder := &strings.Builder{}

	for _, block := range message.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}

	log.Debug("anthropic completed", "model", message.Model, "stop", message.StopReason)

	return strings.TrimSpace(builder.String()), nil
}

func WithAnthropicClient(apiKey, baseURL string) AnthropicReasonerOption {
	return func(prvdr *AnthropicReasoner) {
		opts := []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		}

		if baseURL != "" {
			opts = append(opts, option.WithBaseURL(baseURL))
		}

		client := anthropic.NewClient(opts...)

		prvdr.client = &client
	}
}

func WithAnthropicModel(model string, maxTokens int64) AnthropicReasonerOption {
	return func(prvdr *AnthropicReasoner) {
		prvdr.Model = model

		if maxTokens > 0 {
			prvdr.MaxTokens = maxTokens
		}
	}
}
