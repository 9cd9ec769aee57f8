package provider

import (
	"context"
	"strings"
)

/*
Embedder turns text into fixed-length vectors. Embed is used for search
queries, EmbedBatch for documents being stored or backfilled.
*/
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

/*
Reasoner produces a natural-language answer for a prompt, optionally
grounded on context passages. Implementations make a single attempt;
SDK-level retries are switched off.
*/
type Reasoner interface {
	Complete(ctx context.Context, prompt string, passages ...string) (string, error)
}

/*
RenderPrompt appends the context passages to the prompt as a bullet list.
*/
func RenderPrompt(prompt string, passages ...string) string {
	if len(passages) == 0 {
		return prompt
	}

	builder := &strings.Builder{}
	builder.WriteString(prompt)
	builder.WriteString("\n\nContext:\n")

	for _, passage := range passages {
		builder.WriteString("- ")
		builder.WriteString(strings.TrimSpace(passage))
		builder.WriteString("\n")
	}

	return builder.String()
}
