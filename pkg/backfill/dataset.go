package backfill

import (
	"fmt"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

/*
Dataset describes how to find the records of one collection that can be
embedded, and how to turn each into the text that gets embedded.
*/
type Dataset struct {
	Name       string
	Require    bson.D
	Projection bson.D
	BuildText  func(doc bson.M) string
}

func nonEmptyString(field string) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$type", Value: "string"}, {Key: "$ne", Value: ""}}}}
}

func projection(fields ...string) bson.D {
	out := bson.D{{Key: "_id", Value: 1}}

	for _, field := range fields {
		out = append(out, bson.E{Key: field, Value: 1})
	}

	return out
}

var Movies = Dataset{
	Name:       "movies",
	Require:    bson.D{{Key: "$or", Value: bson.A{nonEmptyString("fullplot"), nonEmptyString("title")}}},
	Projection: projection("title", "genres", "fullplot"),
	BuildText:  MovieText,
}

var Comments = Dataset{
	Name:       "comments",
	Require:    nonEmptyString("text"),
	Projection: projection("text"),
	BuildText:  CommentText,
}

var Memory = Dataset{
	Name:       "memory",
	Projection: projection("text", "subject", "title", "query", "queryText", "summary", "memory", "signals", "nextActions", "next_actions"),
	BuildText:  MemoryText,
}

var Plots = Dataset{
	Name:       "plots",
	Require:    nonEmptyString("plot"),
	Projection: projection("plot"),
	BuildText:  func(doc bson.M) string { return str(doc["plot"]) },
}

/*
Datasets indexes the known datasets by name.
*/
var Datasets = map[string]Dataset{
	Movies.Name:   Movies,
	Comments.Name: Comments,
	Memory.Name:   Memory,
	Plots.Name:    Plots,
}

func MovieText(doc bson.M) string {
	parts := []string{}

	if title := str(doc["title"]); title != "" {
		parts = append(parts, "Title: "+title)
	}

	if genres := strings.Join(list(doc["genres"]), ", "); genres != "" {
		parts = append(parts, "Genres: "+genres)
	}

	if plot := str(doc["fullplot"]); plot != "" {
		parts = append(parts, "Plot: "+plot)
	}

	return strings.Join(parts, "\n")
}

func CommentText(doc bson.M) string {
	return str(doc["text"])
}

/*
MemoryText embeds the text of records written by the agent as-is, and
composes structured memory records from their subject, query, summary,
signals and next actions. Anything else falls back to a field dump.
*/
func MemoryText(doc bson.M) string {
	if text := str(doc["text"]); text != "" {
		return text
	}

	parts := []string{}

	if subject := first(doc, "subject", "title"); subject != "" {
		parts = append(parts, "Subject: "+subject)
	}

	if query := first(doc, "query", "queryText"); query != "" {
		parts = append(parts, "Query: "+query)
	}

	if summary := first(doc, "summary", "memory"); summary != "" {
		parts = append(parts, "Summary: "+summary)
	}

	if signals := list(doc["signals"]); len(signals) > 0 {
		parts = append(parts, "Signals: "+strings.Join(signals, ", "))
	}

	actions := list(doc["nextActions"])

	if len(actions) == 0 {
		actions = list(doc["next_actions"])
	}

	if len(actions) > 0 {
		parts = append(parts, "Next actions: "+strings.Join(actions, "; "))
	}

	if len(parts) == 0 {
		return dump(doc)
	}

	return strings.Join(parts, "\n")
}

func first(doc bson.M, keys ...string) string {
	for _, key := range keys {
		if value := str(doc[key]); value != "" {
			return value
		}
	}

	return ""
}

func str(value any) string {
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s)
	}

	return ""
}

func list(value any) []string {
	var items []any

	switch v := value.(type) {
	case nil:
		return nil
	case bson.A:
		items = v
	case []any:
		items = v
	case []string:
		for _, s := range v {
			items = append(items, s)
		}
	default:
		items = []any{v}
	}

	out := []string{}

	for _, item := range items {
		if item == nil {
			continue
		}

		if s := strings.TrimSpace(fmt.Sprintf("%v", item)); s != "" {
			out = append(out, s)
		}
	}

	return out
}

func dump(doc bson.M) string {
	keys := make([]string, 0, len(doc))

	for key := range doc {
		if key != "_id" {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return ""
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))

	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s: %v", key, doc[key])
	}

	return strings.Join(parts, "\n")
}
