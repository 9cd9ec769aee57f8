package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

type traceField struct {
	key   string
	value any
}

/*
describeCall renders the interesting arguments of a tool call as key=value
pairs. Vector searches report their index settings and the query vector
length instead of the vector itself.
*/
func describeCall(name string, args map[string]any) string {
	fields := []traceField{}

	if db, ok := args["database"]; ok {
		fields = append(fields, traceField{"db", db})
	}

	if coll, ok := args["collection"]; ok {
		fields = append(fields, traceField{"coll", coll})
	}

	if filter, ok := args["filter"]; ok && (name == "find" || name == "update-many" || name == "delete-many") {
		raw, _ := json.Marshal(filter)
		fields = append(fields, traceField{"filter", shorten(string(raw), 120)})
	}

	if pipeline, ok := args["pipeline"]; ok && name == "aggregate" {
		if meta := vectorSearchMeta(pipeline); meta != nil {
			fields = append(fields, traceField{"op", "vectorSearch"})
			fields = append(fields, meta...)
		} else {
			fields = append(fields, traceField{"op", "aggregate"})
		}
	}

	out := make([]string, 0, len(fields))

	for _, field := range fields {
		if field.value == nil {
			continue
		}

		out = append(out, fmt.Sprintf("%s=%v", field.key, field.value))
	}

	return strings.Join(out, " ")
}

func vectorSearchMeta(pipeline any) []traceField {
	stages, ok := pipeline.([]any)

	if !ok {
		return nil
	}

	for _, stage := range stages {
		doc, ok := stage.(map[string]any)

		if !ok {
			continue
		}

		vs, ok := doc["$vectorSearch"].(map[string]any)

		if !ok {
			continue
		}

		meta := []traceField{
			{"index", vs["index"]},
			{"path", vs["path"]},
			{"limit", vs["limit"]},
			{"numCandidates", vs["numCandidates"]},
		}

		if vector, ok := vs["queryVector"].([]any); ok {
			meta = append(meta, traceField{"queryVector_dim", len(vector)})
		}

		if query, ok := vs["query"]; ok {
			meta = append(meta, traceField{"query", shorten(fmt.Sprint(query), 80)})
		}

		return meta
	}

	return nil
}

/*
shorten flattens newlines and truncates s to n characters.
*/
func shorten(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", "\\n")
	runes := []rune(s)

	if len(runes) <= n {
		return s
	}

	return string(runes[:n-3]) + "..."
}
