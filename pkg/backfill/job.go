/*
Package backfill computes embeddings for records that do not have one yet
and writes them back in bulk. Runs are idempotent: only records missing the
embedding field are selected unless Force is set.
*/
package backfill

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"github.com/theapemachine/atlas-demos/pkg/provider"
	"go.mongodb.org/mongo-driver/bson"
)

/*
Update sets fields on the record with the given _id.
*/
type Update struct {
	ID  any
	Set bson.D
}

/*
Collection is the storage side of a backfill.
*/
type Collection interface {
	// Scan streams the records matching filter in batches of batchSize,
	// stopping after limit records when limit is positive.
	Scan(ctx context.Context, filter, projection bson.D, limit, batchSize int, fn func(batch []bson.M) error) error
	// Apply writes the updates unordered and returns the modified count.
	Apply(ctx context.Context, updates []Update) (int64, error)
}

type Job struct {
	Collection   Collection
	Embedder     provider.Embedder
	Dataset      Dataset
	Field        string
	BatchSize    int
	MaxDocs      int
	Force        bool
	StoreText    bool
	DerivedField string
	DryRun       bool
	Retry        *errors.RetryConfig
}

type Result struct {
	Scanned  int
	Embedded int
	Skipped  int
	Updated  int64
}

func (result Result) String() string {
	return fmt.Sprintf("scanned=%d embedded=%d skipped=%d updated=%d", result.Scanned, result.Embedded, result.Skipped, result.Updated)
}

/*
Filter selects the records the job will embed.
*/
func (job *Job) Filter() bson.D {
	clauses := bson.A{}

	if len(job.Dataset.Require) > 0 {
		clauses = append(clauses, job.Dataset.Require)
	}

	if !job.Force {
		clauses = append(clauses, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: job.Field, Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: job.Field, Value: nil}},
		}}})
	}

	switch len(clauses) {
	case 0:
		return bson.D{}
	case 1:
		return clauses[0].(bson.D)
	}

	return bson.D{{Key: "$and", Value: clauses}}
}

/*
Run embeds every selected record. Rate-limited embedding calls are retried
with backoff; any other failure aborts the run with what was done so far.
*/
func (job *Job) Run(ctx context.Context) (Result, error) {
	var result Result

	retry := job.Retry

	if retry == nil {
		retry = errors.DefaultRetryConfig()
	}

	batchSize := job.BatchSize

	if batchSize <= 0 {
		batchSize = 32
	}

	log.Info("backfill starting",
		"dataset", job.Dataset.Name,
		"field", job.Field,
		"force", job.Force,
		"dryRun", job.DryRun,
		"maxDocs", job.MaxDocs,
	)

	err := job.Collection.Scan(ctx, job.Filter(), job.Dataset.Projection, job.MaxDocs, batchSize, func(batch []bson.M) error {
		result.Scanned += len(batch)

		ids := make([]any, 0, len(batch))
		texts := make([]string, 0, len(batch))

		for _, doc := range batch {
			text := job.Dataset.BuildText(doc)

			if text == "" {
				result.Skipped++
				continue
			}

			ids = append(ids, doc["_id"])
			texts = append(texts, text)
		}

		if len(texts) == 0 {
			return nil
		}

		var vectors [][]float32

		if err := errors.Retry(ctx, retry, func() (err error) {
			vectors, err = job.Embedder.EmbedBatch(ctx, texts)
			return err
		}); err != nil {
			return fmt.Errorf("embedding batch of %d: %w", len(texts), err)
		}

		if len(vectors) != len(texts) {
			return errors.Malformed("backfill", "embedder returned a different number of vectors")
		}

		result.Embedded += len(vectors)

		if job.DryRun {
			log.Info("dry run, skipping write", "batch", len(texts))
			return nil
		}

		updates := make([]Update, len(texts))

		for i := range texts {
			set := bson.D{{Key: job.Field, Value: vectors[i]}}

			if job.StoreText && job.DerivedField != "" {
				set = append(set, bson.E{Key: job.DerivedField, Value: texts[i]})
			}

			updates[i] = Update{ID: ids[i], Set: set}
		}

		modified, err := job.Collection.Apply(ctx, updates)

		if err != nil {
			return err
		}

		result.Updated += modified
		log.Info("backfill progress", "dataset", job.Dataset.Name, "embedded", result.Embedded, "updated", result.Updated)

		return nil
	})

	if err != nil {
		return result, err
	}

	if result.Scanned == 0 {
		log.Info("nothing to embed", "dataset", job.Dataset.Name)
	}

	return result, nil
}
