package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
OpenAIReasoner answers prompts with a single chat completion.
*/
type OpenAIReasoner struct {
	client *openai.Client
	Model  string
}

type OpenAIReasonerOption func(*OpenAIReasoner)

func NewOpenAIReasoner(options ...OpenAIReasonerOption) *OpenAIReasoner {
	reasoner := &OpenAIReasoner{Model: "gpt-5"}

	for _, option := range options {
		option(reasoner)
	}

	return reasoner
}

func (prvdr *OpenAIReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	completion, err := prvdr.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(prvdr.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(RenderPrompt(prompt, passages...)),
		},
	})

	if err != nil {
		return "", classifyOpenAI("openai complete", err)
	}

	if len(completion.Choices) == 0 {
		return "", errors.Malformed("openai complete", "no choices in completion")
	}

	log.Debug("openai completed", "model", completion.Model, "tokens", completion.Usage.TotalTokens)

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

/*
OpenAIEmbedder embeds text with the OpenAI embeddings endpoint.
*/
type OpenAIEmbedder struct {
	api   openai.Client
	Model string
}

type OpenAIEmbedderOption func(*OpenAIEmbedder)

func NewOpenAIEmbedder(options ...OpenAIEmbedderOption) *OpenAIEmbedder {
	embedder := &OpenAIEmbedder{Model: string(openai.EmbeddingModelTextEmbedding3Small)}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})

	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.Model),
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
	})

	if err != nil {
		return nil, classifyOpenAI("openai embed", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, errors.Malformed("openai embed", "expected one embedding per input")
	}

	out := make([][]float32, len(resp.Data))

	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(out) {
			return nil, errors.Malformed("openai embed", "embedding index out of range")
		}

		out[d.Index] = toFloat32(d.Embedding)
	}

	return out, nil
}

func toFloat32(values []float64) []float32 {
	out := make([]float32, len(values))

	for i, v := range values {
		out[i] = float32(v)
	}

	return out
}

func classifyOpenAI(op string, err error) error {
	var apiErr *openai.Error

	if errors.As(err, &apiErr) {
		return errors.FromStatus(op, apiErr.StatusCode, apiErr.Message)
	}

	return errors.Transient(op, err)
}

func openAIOptions(apiKey, baseURL string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}

	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return opts
}

func WithOpenAIClient(apiKey, baseURL string) OpenAIReasonerOption {
	return func(prvdr *OpenAIReasoner) {
		client := openai.NewClient(openAIOptions(apiKey, baseURL)...)
		prvdr.client = &client
	}
}

func WithOpenAIModel(model string) OpenAIReasonerOption {
	return func(prvdr *OpenAIReasoner) {
		prvdr.Model = model
	}
}

func WithOpenAIEmbedderClient(apiKey, baseURL string) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.api = openai.NewClient(openAIOptions(apiKey, baseURL)...)
	}
}

func WithOpenAIEmbedderModel(model string) OpenAIEmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.Model = model
	}
}
