/*
Package stores defines the document-database facade the agent and the
search demos talk to, and the record shape that flows through it.
Implementations live in the mongo, mcpstore and local sub-packages.
*/
package stores

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

/*
Record is a stored document as seen by the application: a memory record
created by the agent, or a content record (movie, comment) retrieved by
a similarity search.
*/
type Record struct {
	ID        string
	Text      string
	Embedding []float32
	CreatedAt time.Time
	Score     float64
	Fields    map[string]any
}

/*
Field returns a string view of one of the extra fields of the record.
*/
func (record Record) Field(name string) string {
	value, ok := record.Fields[name]

	if !ok || value == nil {
		return ""
	}

	return stringify(value)
}

/*
Target names one searchable collection: where it lives, which vector index
to query, which field holds the embedding, and which fields to return.
*/
type Target struct {
	Database      string
	Collection    string
	Index         string
	Path          string
	NumCandidates int
	Project       []string
}

/*
Candidates returns the number of nearest-neighbour candidates to consider
for a search with the given limit.
*/
func (target Target) Candidates(limit int) int {
	if target.NumCandidates > 0 {
		return target.NumCandidates
	}

	return max(50, limit*10)
}

/*
Filter selects records to delete. An empty filter matches every record.
*/
type Filter map[string]any

/*
Store is the database client contract the dispatcher depends on.
*/
type Store interface {
	// Search returns up to limit records ordered by similarity score,
	// highest first. It returns an empty slice when the index is not
	// ready or nothing matches.
	Search(ctx context.Context, vector []float32, limit int) ([]Record, error)
	Insert(ctx context.Context, record Record) (string, error)
	Delete(ctx context.Context, filter Filter) (int64, error)
}

/*
SortByScore orders records by descending score. Ties keep the order the
database returned them in.
*/
func SortByScore(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
}

const (
	MemoryTag    = "user_preference"
	MemorySource = "demo-client"
)

/*
MemoryDocument renders a memory record into the document shape stored in
the memory collection, with the embedding under the target's path.
*/
func MemoryDocument(record Record, path string) bson.D {
	createdAt := record.CreatedAt

	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	doc := bson.D{
		{Key: "text", Value: record.Text},
		{Key: "tags", Value: bson.A{MemoryTag}},
		{Key: "createdAt", Value: createdAt},
		{Key: "source", Value: MemorySource},
	}

	if len(record.Embedding) > 0 {
		doc = append(doc, bson.E{Key: path, Value: record.Embedding})
	}

	return doc
}

/*
FromDocument maps a search result document onto a Record. The text is taken
from "text" when present, otherwise the remaining fields are kept as-is.
*/
func FromDocument(doc bson.M) Record {
	record := Record{Fields: map[string]any{}}

	for key, value := range doc {
		switch key {
		case "_id":
			record.ID = stringify(value)
		case "text":
			record.Text = stringify(value)
		case "score":
			record.Score = toFloat(value)
		case "createdAt":
			if t, ok := toTime(value); ok {
				record.CreatedAt = t
			}
		default:
			record.Fields[key] = value
		}
	}

	return record
}
