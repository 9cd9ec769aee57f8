package tools

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/theapemachine/atlas-demos/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	deletedCountField = regexp.MustCompile(`deletedCount['"]?\s*:\s*(\d+)`)
	deletedSentence   = regexp.MustCompile("(?i)deleted\\s+`?(\\d+)`?")
)

/*
ParseDocuments reads the documents out of tool result text. The payload may
be plain JSON or Extended JSON, and may be surrounded by wrapper lines.
Each part is tried on its own first, then all parts joined together.
Text without any JSON payload yields no documents and no error.
*/
func ParseDocuments(parts ...string) ([]bson.M, error) {
	candidates := make([]string, 0, len(parts)+1)
	candidates = append(candidates, parts...)

	if len(parts) > 1 {
		candidates = append(candidates, strings.Join(parts, "\n"))
	}

	var (
		lastErr error
		parsed  bool
	)

	for _, text := range candidates {
		docs, found, err := parseDocuments(text)

		if err != nil {
			lastErr = err
			continue
		}

		if len(docs) > 0 {
			return docs, nil
		}

		parsed = parsed || found
	}

	if !parsed && lastErr != nil {
		return nil, lastErr
	}

	return []bson.M{}, nil
}

func parseDocuments(text string) ([]bson.M, bool, error) {
	payload := extractPayload(text)

	if payload == "" {
		return nil, false, nil
	}

	var wrapper bson.M

	if err := bson.UnmarshalExtJSON([]byte(`{"v":`+payload+`}`), false, &wrapper); err != nil {
		return nil, false, errors.Malformed("parse tool result", err)
	}

	switch value := wrapper["v"].(type) {
	case bson.A:
		return asDocuments(value), true, nil
	case []any:
		return asDocuments(value), true, nil
	default:
		doc := asDocument(value)

		for _, key := range []string{"documents", "result", "value", "data"} {
			switch nested := doc[key].(type) {
			case bson.A:
				return asDocuments(nested), true, nil
			case []any:
				return asDocuments(nested), true, nil
			}
		}
	}

	return nil, true, nil
}

/*
extractPayload finds the outermost JSON array or object in text.
*/
func extractPayload(text string) string {
	trimmed := strings.TrimSpace(text)

	if trimmed == "" {
		return ""
	}

	start := strings.IndexAny(trimmed, "[{")

	if start < 0 {
		return ""
	}

	closer := byte('}')

	if trimmed[start] == '[' {
		closer = ']'
	}

	end := strings.LastIndexByte(trimmed, closer)

	if end <= start {
		return ""
	}

	return trimmed[start : end+1]
}

func asDocuments(values []any) []bson.M {
	docs := make([]bson.M, 0, len(values))

	for _, value := range values {
		if doc := asDocument(value); doc != nil {
			docs = append(docs, doc)
		}
	}

	return docs
}

func asDocument(value any) bson.M {
	switch typed := value.(type) {
	case bson.M:
		return typed
	case map[string]any:
		return bson.M(typed)
	case bson.D:
		return typed.Map()
	}

	return nil
}

/*
ParseDeletedCount reads the number of deleted documents from a delete-many
result, written either as a deletedCount field or as a sentence.
*/
func ParseDeletedCount(parts ...string) int64 {
	text := strings.Join(parts, "\n")

	for _, pattern := range []*regexp.Regexp{deletedCountField, deletedSentence} {
		if match := pattern.FindStringSubmatch(text); match != nil {
			count, err := strconv.ParseInt(match[1], 10, 64)

			if err == nil {
				return count
			}
		}
	}

	return 0
}

/*
Plain converts a BSON value (document, pipeline, or anything the driver
can marshal) into the JSON-native shape MCP arguments are sent as. Dates
and other BSON types keep their relaxed Extended JSON form.
*/
func Plain(value any) (any, error) {
	raw, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: value}}, false, false)

	if err != nil {
		return nil, errors.Malformed("encode tool arguments", err)
	}

	var out map[string]any

	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Malformed("encode tool arguments", err)
	}

	return out["v"], nil
}

/*
ToDocument converts a decoded JSON argument into a BSON document, reading
Extended JSON wrappers such as {"$date": ...} back into BSON types.
*/
func ToDocument(value any) (bson.D, error) {
	if value == nil {
		return bson.D{}, nil
	}

	raw, err := json.Marshal(value)

	if err != nil {
		return nil, errors.Malformed("decode tool arguments", err)
	}

	var doc bson.D

	if err = bson.UnmarshalExtJSON(raw, false, &doc); err != nil {
		return nil, errors.Malformed("decode tool arguments", err)
	}

	return doc, nil
}

/*
ToDocuments converts a decoded JSON array argument into BSON documents.
*/
func ToDocuments(value any) ([]bson.D, error) {
	values, ok := value.([]any)

	if !ok {
		return nil, errors.Malformed("decode tool arguments", "expected an array of documents")
	}

	docs := make([]bson.D, 0, len(values))

	for _, value := range values {
		doc, err := ToDocument(value)

		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

/*
encodeDocuments renders documents as a relaxed Extended JSON array.
*/
func encodeDocuments(docs []bson.M) (string, error) {
	encoded := make([]string, 0, len(docs))

	for _, doc := range docs {
		raw, err := bson.MarshalExtJSON(doc, false, false)

		if err != nil {
			return "", errors.Malformed("encode documents", err)
		}

		encoded = append(encoded, string(raw))
	}

	return "[" + strings.Join(encoded, ",") + "]", nil
}

func hexIDs(ids []any) []string {
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if oid, ok := id.(primitive.ObjectID); ok {
			out = append(out, oid.Hex())
			continue
		}

		raw, _ := json.Marshal(id)
		out = append(out, strings.Trim(string(raw), `"`))
	}

	return out
}
