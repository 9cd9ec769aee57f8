package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ollama/ollama/api"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
OllamaReasoner answers prompts with a local model through the Ollama chat API.
*/
type OllamaReasoner struct {
	client *api.Client
	Model  string
}

type OllamaReasonerOption func(*OllamaReasoner)

func NewOllamaReasoner(options ...OllamaReasonerOption) *OllamaReasoner {
	prvdr := &OllamaReasoner{Model: "llama3.1"}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *OllamaReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	if prvdr.client == nil {
		return "", errors.Config("ollama complete", "no Ollama client configured")
	}

	stream := false
	builder := &strings.Builder{}

	err := prvdr.client.Chat(ctx, &api.ChatRequest{
		Model: prvdr.Model,
		Messages: []api.Message{{
			Role:    "user",
			Content: RenderPrompt(prompt, passages...),
		}},
		Stream: &stream,
	}, func(resp api.ChatResponse) error {
		builder.WriteString(resp.Message.Content)
		return nil
	})

	if err != nil {
		return "", classifyOllama("ollama complete", err)
	}

	log.Debug("ollama completed", "model", prvdr.Model, "chars", builder.Len())

	return strings.TrimSpace(builder.String()), nil
}

type OllamaEmbedder struct {
	api   *api.Client
	Model string
}

type OllamaEmbedderOption func(*OllamaEmbedder)

func NewOllamaEmbedder(options ...OllamaEmbedderOption) *OllamaEmbedder {
	embedder := &OllamaEmbedder{Model: "nomic-embed-text"}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})

	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	if e.api == nil {
		return nil, errors.Config("ollama embed", "no Ollama client configured")
	}

	resp, err := e.api.Embed(ctx, &api.EmbedRequest{
		Model: e.Model,
		Input: texts,
	})

	if err != nil {
		return nil, classifyOllama("ollama embed", err)
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, errors.Malformed("ollama embed", "expected one embedding per input")
	}

	return resp.Embeddings, nil
}

func classifyOllama(op string, err error) error {
	var statusErr api.StatusError

	if errors.As(err, &statusErr) {
		return errors.FromStatus(op, statusErr.StatusCode, statusErr.ErrorMessage)
	}

	return errors.Transient(op, err)
}

/*
newOllamaClient connects to the server named by OLLAMA_HOST, or the local
default when it is unset.
*/
func newOllamaClient() (*api.Client, error) {
	client, err := api.ClientFromEnvironment()

	if err != nil {
		return nil, errors.Config("ollama client", err)
	}

	return client, nil
}

func WithOllamaClient(client *api.Client) OllamaReasonerOption {
	return func(prvdr *OllamaReasoner) {
		prvdr.client = client
	}
}

func WithOllamaModel(model string) OllamaReasonerOption {
	return func(prvdr *OllamaReasoner) {
		prvdr.Model = model
	}
}

func WithOllamaEmbedderModel(model string) OllamaEmbedderOption {
	return func(e *OllamaEmbedder) {
		e.Model = model
	}
}

func WithOllamaEmbedderClient(client *api.Client) OllamaEmbedderOption {
	return func(e *OllamaEmbedder) {
		e.api = client
	}
}
