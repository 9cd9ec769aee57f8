package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	fiberClient "github.com/gofiber/fiber/v3/client"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

const (
	InputQuery    = "query"
	InputDocument = "document"
)

/*
VoyageEmbedder calls the VoyageAI embeddings endpoint.
*/
type VoyageEmbedder struct {
	conn       *fiberClient.Client
	apiKey     string
	Model      string
	Dimensions int
}

type VoyageEmbedderOption func(*VoyageEmbedder)

type voyageRequest struct {
	Input           []string `json:"input"`
	Model           string   `json:"model"`
	InputType       string   `json:"input_type,omitempty"`
	OutputDimension int      `json:"output_dimension,omitempty"`
	Truncation      bool     `json:"truncation"`
}

type voyageResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func NewVoyageEmbedder(options ...VoyageEmbedderOption) *VoyageEmbedder {
	embedder := &VoyageEmbedder{
		Model: "voyage-4",
		conn:  fiberClient.New().SetBaseURL("https://api.voyageai.com/v1").SetTimeout(60 * time.Second),
	}

	for _, option := range options {
		option(embedder)
	}

	return embedder
}

func (e *VoyageEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, InputQuery)

	if err != nil {
		return nil, err
	}

	return vectors[0], nil
}

func (e *VoyageEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	return e.embed(ctx, texts, InputDocument)
}

func (e *VoyageEmbedder) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	var (
		resp *fiberClient.Response
		err  error
		out  voyageResponse
	)

	if resp, err = e.conn.Post("/embeddings", fiberClient.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Content-Type":  "application/json",
			"Authorization": "Bearer " + e.apiKey,
		},
		Body: voyageRequest{
			Input:           texts,
			Model:           e.Model,
			InputType:       inputType,
			OutputDimension: e.Dimensions,
			Truncation:      true,
		},
	}); err != nil {
		log.Error("voyage request failed", "error", err)
		return nil, errors.Transient("voyage embed", err)
	}

	defer resp.Close()

	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusBadRequest {
		return nil, errors.FromStatus("voyage embed", resp.StatusCode(), string(resp.Body()))
	}

	if err = resp.JSON(&out); err != nil {
		return nil, errors.Malformed("voyage embed", err)
	}

	if len(out.Data) != len(texts) {
		return nil, errors.Malformed("voyage embed", "expected one embedding per input")
	}

	vectors := make([][]float32, len(texts))

	for _, item := range out.Data {
		if item.Index < 0 || item.Index >= len(vectors) {
			return nil, errors.Malformed("voyage embed", "embedding index out of range")
		}

		vectors[item.Index] = item.Embedding
	}

	log.Debug("voyage embedded", "inputs", len(texts), "type", inputType, "tokens", out.Usage.TotalTokens)

	return vectors, nil
}

func WithVoyageAPIKey(key string) VoyageEmbedderOption {
	return func(e *VoyageEmbedder) {
		e.apiKey = key
	}
}

func WithVoyageModel(model string, dimensions int) VoyageEmbedderOption {
	return func(e *VoyageEmbedder) {
		e.Model = model
		e.Dimensions = dimensions
	}
}

func WithVoyageBaseURL(baseURL string) VoyageEmbedderOption {
	return func(e *VoyageEmbedder) {
		e.conn.SetBaseURL(baseURL)
	}
}
