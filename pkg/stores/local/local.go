/*
Package local is an in-process vector store over chromem-go, used when the
agent runs without a database and throughout the tests.
*/
package local

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
	"github.com/theapemachine/atlas-demos/pkg/stores"
)

/*
Store keeps the records of one target in a chromem collection.
Embeddings are always supplied by the caller.
*/
type Store struct {
	mu     sync.Mutex
	db     *chromem.DB
	name   string
	target stores.Target
	col    *chromem.Collection
}

/*
New returns a Store for target in db. Several stores can share one db.
*/
func New(db *chromem.DB, target stores.Target) (*Store, error) {
	store := &Store{
		db:     db,
		name:   target.Database + "." + target.Collection,
		target: target,
	}

	if err := store.open(); err != nil {
		return nil, err
	}

	return store, nil
}

func (store *Store) open() error {
	col, err := store.db.GetOrCreateCollection(store.name, nil, nil)

	if err != nil {
		return fmt.Errorf("local store %s: %w", store.name, err)
	}

	store.col = col

	return nil
}

func (store *Store) Search(ctx context.Context, vector []float32, limit int) ([]stores.Record, error) {
	store.mu.Lock()
	col := store.col
	store.mu.Unlock()

	if n := col.Count(); limit > n {
		limit = n
	}

	if limit <= 0 {
		return []stores.Record{}, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, limit, nil, nil)

	if err != nil {
		return nil, fmt.Errorf("local search %s: %w", store.name, err)
	}

	records := make([]stores.Record, 0, len(results))

	for _, result := range results {
		record := stores.Record{
			ID:     result.ID,
			Text:   result.Content,
			Score:  float64(result.Similarity),
			Fields: map[string]any{},
		}

		for key, value := range result.Metadata {
			if key == "createdAt" {
				record.CreatedAt, _ = time.Parse(time.RFC3339Nano, value)
				continue
			}

			record.Fields[key] = value
		}

		records = append(records, record)
	}

	stores.SortByScore(records)

	return records, nil
}

func (store *Store) Insert(ctx context.Context, record stores.Record) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	metadata := map[string]string{
		"createdAt": record.CreatedAt.Format(time.RFC3339Nano),
	}

	for key, value := range record.Fields {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	store.mu.Lock()
	col := store.col
	store.mu.Unlock()

	if err := col.AddDocument(ctx, chromem.Document{
		ID:        record.ID,
		Content:   record.Text,
		Metadata:  metadata,
		Embedding: record.Embedding,
	}); err != nil {
		return "", fmt.Errorf("local insert %s: %w", store.name, err)
	}

	return record.ID, nil
}

/*
Delete removes the records whose metadata matches every key of filter.
An empty filter drops and recreates the whole collection.
*/
func (store *Store) Delete(ctx context.Context, filter stores.Filter) (int64, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if len(filter) == 0 {
		count := int64(store.col.Count())

		if err := store.db.DeleteCollection(store.name); err != nil {
			return 0, fmt.Errorf("local delete %s: %w", store.name, err)
		}

		return count, store.open()
	}

	where := make(map[string]string, len(filter))

	for key, value := range filter {
		where[key] = fmt.Sprintf("%v", value)
	}

	before := store.col.Count()

	if err := store.col.Delete(ctx, where, nil); err != nil {
		return 0, fmt.Errorf("local delete %s: %w", store.name, err)
	}

	return int64(before - store.col.Count()), nil
}
