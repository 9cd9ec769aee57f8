package provider

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"google.golang.org/genai"
)

/*
GoogleReasoner answers prompts with a single Gemini generateContent call.
*/
type GoogleReasoner struct {
	client *genai.Client
	Model  string
}

type GoogleReasonerOption func(*GoogleReasoner)

func NewGoogleReasoner(options ...GoogleReasonerOption) *GoogleReasoner {
	prvdr := &GoogleReasoner{Model: "gemini-2.5-flash"}

	for _, option := range options {
		option(prvdr)
	}

	return prvdr
}

func (prvdr *GoogleReasoner) Complete(
	ctx context.Context, prompt string, passages ...string,
) (string, error) {
	if prvdr.client == nil {
		return "", errors.Config("google complete", "no Gemini client configured")
	}

	resp, err := prvdr.client.Models.GenerateContent(
		ctx, prvdr.Model, genai.Text(RenderPrompt(prompt, passages...)), nil,
	)

	if err != nil {
		var apiErr genai.APIError

		if errors.As(err, &apiErr) {
			return "", errors.FromStatus("google complete", apiErr.Code, apiErr.Message)
		}

		return "", errors.Transient("google complete", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.Malformed("google complete", "no candidates in response")
	}

	builder := &strings.Builder{}

	for _, part := range resp.Candidates[0].Content.Parts {
		builder.WriteString(part.Text)
	}

	log.Debug("google completed", "model", prvdr.Model, "finish", resp.Candidates[0].FinishReason)

	return strings.TrimSpace(builder.String()), nil
}

func WithGoogleClient(client *genai.Client) GoogleReasonerOption {
	return func(prvdr *GoogleReasoner) {
		prvdr.client = client
	}
}

/*
newGoogleClient connects to the Gemini API. An empty baseURL keeps the
SDK default.
*/
func newGoogleClient(apiKey, baseURL string) (*genai.Client, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
	})

	if err != nil {
		return nil, errors.Config("google client", err)
	}

	return client, nil
}

func WithGoogleModel(model string) GoogleReasonerOption {
	return func(prvdr *GoogleReasoner) {
		if model != "" {
			prvdr.Model = model
		}
	}
}
