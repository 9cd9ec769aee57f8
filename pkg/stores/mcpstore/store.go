/*
Package mcpstore implements the store contract as MCP tool calls against
a MongoDB tool server.
*/
package mcpstore

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/search"
	"github.com/theapemachine/atlas-demos/pkg/stores"
	"github.com/theapemachine/atlas-demos/pkg/tools"
	"go.mongodb.org/mongo-driver/bson"
)

/*
Caller invokes a tool by name and returns the text parts of its result.
*/
type Caller interface {
	Call(ctx context.Context, name string, args map[string]any) ([]string, error)
}

type Store struct {
	caller Caller
	target stores.Target
}

func New(caller Caller, target stores.Target) *Store {
	return &Store{caller: caller, target: target}
}

func (store *Store) args(extra map[string]any) map[string]any {
	args := map[string]any{
		"database":   store.target.Database,
		"collection": store.target.Collection,
	}

	for key, value := range extra {
		args[key] = value
	}

	return args
}

func (store *Store) Search(ctx context.Context, vector []float32, limit int) ([]stores.Record, error) {
	pipeline, err := tools.Plain(search.Similar(
		store.target.Index,
		store.target.Path,
		vector,
		limit,
		store.target.Candidates(limit),
		store.target.Project...,
	))

	if err != nil {
		return nil, err
	}

	parts, err := store.caller.Call(ctx, "aggregate", store.args(map[string]any{"pipeline": pipeline}))

	if err != nil {
		return nil, err
	}

	docs, err := tools.ParseDocuments(parts...)

	if err != nil {
		return nil, err
	}

	records := make([]stores.Record, 0, len(docs))

	for _, doc := range docs {
		records = append(records, stores.FromDocument(doc))
	}

	stores.SortByScore(records)

	log.Debug("vector search over mcp", "collection", store.target.Collection, "hits", len(records))

	return records, nil
}

func (store *Store) Insert(ctx context.Context, record stores.Record) (string, error) {
	doc, err := tools.Plain(stores.MemoryDocument(record, store.target.Path))

	if err != nil {
		return "", err
	}

	parts, err := store.caller.Call(ctx, "insert-many", store.args(map[string]any{"documents": []any{doc}}))

	if err != nil {
		return "", err
	}

	for _, part := range parts {
		var inserted struct {
			InsertedIDs []string `json:"insertedIds"`
		}

		if json.Unmarshal([]byte(part), &inserted) == nil && len(inserted.InsertedIDs) > 0 {
			return inserted.InsertedIDs[0], nil
		}
	}

	return "", nil
}

func (store *Store) Delete(ctx context.Context, filter stores.Filter) (int64, error) {
	if filter == nil {
		filter = stores.Filter{}
	}

	plain, err := tools.Plain(bson.M(filter))

	if err != nil {
		return 0, err
	}

	parts, err := store.caller.Call(ctx, "delete-many", store.args(map[string]any{"filter": plain}))

	if err != nil {
		return 0, err
	}

	return tools.ParseDeletedCount(parts...), nil
}
