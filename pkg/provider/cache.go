package provider

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/ristretto"
)

/*
CachedEmbedder memoizes query embeddings, so asking the same question
twice in a session costs a single embedding call. Document batches pass
straight through, since backfills never repeat their inputs.
*/
type CachedEmbedder struct {
	next  Embedder
	cache *ristretto.Cache
}

/*
NewCachedEmbedder wraps next with a cache holding at most maxEntries vectors.
*/
func NewCachedEmbedder(next Embedder, maxEntries int64) (*CachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})

	if err != nil {
		return nil, err
	}

	return &CachedEmbedder{next: next, cache: cache}, nil
}

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if value, ok := e.cache.Get(text); ok {
		log.Debug("embedding cache hit", "chars", len(text))
		return value.([]float32), nil
	}

	vector, err := e.next.Embed(ctx, text)

	if err != nil {
		return nil, err
	}

	e.cache.Set(text, vector, 1)
	e.cache.Wait()

	return vector, nil
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.EmbedBatch(ctx, texts)
}

func (e *CachedEmbedder) Close() {
	e.cache.Close()
}
