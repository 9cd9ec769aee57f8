package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"
	"github.com/cohere-ai/cohere-go/v2/core"
	cohereoption "github.com/cohere-ai/cohere-go/v2/option"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
CohereReasoner answers prompts with a single Cohere chat call.
*/
type CohereReasoner struct {
	client *cohereclient.Client
	Model  string
}

type CohereReasonerOption func(*CohereReasoner)

func NewCohereReasoner(options ...CohereReasonerOption) *CohereReasoner {
	prvdr := &CohereReasoner{Model: "command-r-plus"}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *CohereReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	if prvdr.client == nil {
		return "", errors.Config("cohere complete", "no Cohere client configured")
	}

	model := prvdr.Model

	response, err := prvdr.client.Chat(ctx, &cohere.ChatRequest{
		Model:   &model,
		Message: RenderPrompt(prompt, passages...),
	})

	if err != nil {
		return "", classifyCohere("cohere complete", err)
	}

	log.Debug("cohere completed", "model", model)

	return strings.TrimSpace(response.GetText()), nil
}

/*
CohereEmbedder embeds text with Cohere's embed endpoint. Queries and
documents use the matching search input types, as v3 models require one.
*/
type CohereEmbedder struct {
	api   *cohereclient.Client
	Model string
}

type CohereEmbedderOption func(*CohereEmbedder)

func NewCohereEmbedder(options ...CohereEmbedderOption) *CohereEmbedder {
	embedder := &CohereEmbedder{Model: "embed-english-v3.0"}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

func (e *CohereEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, cohere.EmbedInputTypeSearchQuery)

	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (e *CohereEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return e.embed(ctx, texts, cohere.EmbedInputTypeSearchDocument)
}

func (e *CohereEmbedder) embed(
	ctx context.Context, texts []string, inputType cohere.EmbedInputType,
) ([][]float32, error) {
	if e.api == nil {
		return nil, errors.Config("cohere embed", "no Cohere client configured")
	}

	model := e.Model

	resp, err := e.api.Embed(ctx, &cohere.EmbedRequest{
		Model:     &model,
		Texts:     texts,
		InputType: &inputType,
	})

	if err != nil {
		return nil, classifyCohere("cohere embed", err)
	}

	floats := resp.GetEmbeddingsFloats()

	if floats == nil || len(floats.Embeddings) != len(texts) {
		return nil, errors.Malformed("cohere embed", "expected one embedding per input")
	}

	out := make([][]float32, len(floats.Embeddings))

	for i, embedding := range floats.Embeddings {
		out[i] = toFloat32(embedding)
	}

	return out, nil
}

func classifyCohere(op string, err error) error {
	var apiErr *core.APIError

	if errors.As(err, &apiErr) {
		return errors.FromStatus(op, apiErr.StatusCode, apiErr.Error())
	}

	return errors.Transient(op, err)
}

/*
newCohereClient builds a client that makes a single attempt per call.
An empty baseURL keeps the SDK default.
*/
func newCohereClient(apiKey, baseURL string) *cohereclient.Client {
	opts := []cohereoption.RequestOption{
		cohereoption.WithToken(apiKey),
		cohereoption.WithMaxAttempts(1),
	}

	if baseURL != "" {
		opts = append(opts, cohereoption.WithBaseURL(baseURL))
	}

	return cohereclient.NewClient(opts...)
}

func WithCohereClient(apiKey, baseURL string) CohereReasonerOption {
	return func(prvdr *CohereReasoner) {
		prvdr.client = newCohereClient(apiKey, baseURL)
	}
}

func WithCohereModel(model string) CohereReasonerOption {
	return func(prvdr *CohereReasoner) {
		if model != "" {
			prvdr.Model = model
		}
	}
}

func WithCohereEmbedderClient(apiKey, baseURL string) CohereEmbedderOption {
	return func(e *CohereEmbedder) {
		e.api = newCohereClient(apiKey, baseURL)
	}
}

func WithCohereEmbedderModel(model string) CohereEmbedderOption {
	return func(e *CohereEmbedder) {
		if model != "" {
			e.Model = model
		}
	}
}
