package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	deepseek "github.com/cohesion-org/deepseek-go"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
DeepseekReasoner answers prompts with a DeepSeek chat completion.
*/
type DeepseekReasoner struct {
	client *deepseek.Client
	Model  string
}

type DeepseekReasonerOption func(*DeepseekReasoner)

func NewDeepseekReasoner(options ...DeepseekReasonerOption) *DeepseekReasoner {
	prvdr := &DeepseekReasoner{Model: deepseek.DeepSeekChat}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *DeepseekReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	if prvdr.client == nil {
		return "", errors.Config("deepseek complete", "no DeepSeek client configured")
	}

	response, err := prvdr.client.CreateChatCompletion(ctx, &deepseek.ChatCompletionRequest{
		Model: prvdr.Model,
		Messages: []deepseek.ChatCompletionMessage{{
			Role:    deepseek.ChatMessageRoleUser,
			Content: RenderPrompt(prompt, passages...),
		}},
	})

	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		return "", errors.Transient("deepseek complete", err)
	}

	if len(response.Choices) == 0 {
		return "", errors.Malformed("deepseek complete", "no choices in completion")
	}

	log.Debug("deepseek completed", "model", response.Model)

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

/*
WithDeepseekClient points the reasoner at baseURL, which must end in a
slash. An empty baseURL keeps the public endpoint.
*/
func WithDeepseekClient(apiKey, baseURL string) DeepseekReasonerOption {
	return func(prvdr *DeepseekReasoner) {
		if baseURL == "" {
			prvdr.client = deepseek.NewClient(apiKey)
			return
		}

		prvdr.client = deepseek.NewClient(apiKey, baseURL)
	}
}

func WithDeepseekModel(model string) DeepseekReasonerOption {
	return func(prvdr *DeepseekReasoner) {
		if model != "" {
			prvdr.Model = model
		}
	}
}
