package agent

import (
	"regexp"
	"strings"

	"github.com/theapemachine/atlas-demos/pkg/stores"
)

const plotPreview = 160

var contentKeywords = regexp.MustCompile(`(?i)\b(movie|movies|recommend|similar)\b`)

/*
WantsContent reports whether a question asks for movies, which gates the
content search when CONTENT_SEARCH=keywords.
*/
func WantsContent(question string) bool {
	return contentKeywords.MatchString(question)
}

/*
MemoryTexts returns the non-empty texts of the retrieved memory records,
in retrieval order.
*/
func MemoryTexts(records []stores.Record) []string {
	texts := make([]string, 0, len(records))

	for _, record := range records {
		if record.Text != "" {
			texts = append(texts, record.Text)
		}
	}

	return texts
}

/*
BuildPrompt assembles the question, the retrieved memory and the candidate
content into the prompt sent to the reasoning model. Empty blocks read
"(none)".
*/
func BuildPrompt(question string, memory []string, content []stores.Record) string {
	memoryBlock := "(none)"

	if len(memory) > 0 {
		lines := make([]string, len(memory))

		for i, text := range memory {
			lines[i] = "- " + text
		}

		memoryBlock = strings.Join(lines, "\n")
	}

	contentBlock := "(none)"

	if len(content) > 0 {
		lines := make([]string, len(content))

		for i, record := range content {
			plot := []rune(strings.ReplaceAll(record.Field("fullplot"), "\n", " "))

			if len(plot) > plotPreview {
				plot = plot[:plotPreview]
			}

			lines[i] = "- " + record.Field("title") + " | " + record.Field("genres") + " | " + string(plot)
		}

		contentBlock = strings.Join(lines, "\n")
	}

	builder := &strings.Builder{}

	builder.WriteString("You are a helpful demo assistant.\n\n")
	builder.WriteString("User request:\n" + question + "\n\n")
	builder.WriteString("Retrieved user memory (top-k):\n" + memoryBlock + "\n\n")
	builder.WriteString("Candidate movies (from vector search):\n" + contentBlock + "\n\n")
	builder.WriteString("Instructions:\n")
	builder.WriteString("- If the user asks for movies/recommendations, output ONLY a bullet list:\n")
	builder.WriteString("  Title - Genres - one sentence why (use query + memory).\n")
	builder.WriteString("- If the user does NOT ask for movies, answer normally and IGNORE the candidate movies list.\n")
	builder.WriteString("- Do not mention tools, databases, MCP, or embeddings.\n")

	return builder.String()
}
