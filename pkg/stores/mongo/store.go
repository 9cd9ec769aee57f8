package mongo

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/search"
	"github.com/theapemachine/atlas-demos/pkg/stores"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

/*
Store runs similarity searches, inserts and deletes against one
collection directly through the driver.
*/
type Store struct {
	coll   *mongo.Collection
	target stores.Target
}

func NewStore(client *mongo.Client, target stores.Target) *Store {
	return &Store{
		coll:   client.Database(target.Database).Collection(target.Collection),
		target: target,
	}
}

func (store *Store) Search(ctx context.Context, vector []float32, limit int) ([]stores.Record, error) {
	pipeline := search.Similar(
		store.target.Index,
		store.target.Path,
		vector,
		limit,
		store.target.Candidates(limit),
		store.target.Project...,
	)

	docs, err := aggregate(ctx, store.coll, pipeline)

	if err != nil {
		return nil, err
	}

	records := make([]stores.Record, 0, len(docs))

	for _, doc := range docs {
		records = append(records, stores.FromDocument(doc))
	}

	stores.SortByScore(records)

	log.Debug("vector search", "collection", store.coll.Name(), "index", store.target.Index, "hits", len(records))

	return records, nil
}

func (store *Store) Insert(ctx context.Context, record stores.Record) (string, error) {
	res, err := store.coll.InsertOne(ctx, stores.MemoryDocument(record, store.target.Path))

	if err != nil {
		return "", classify("insert", err)
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		return id.Hex(), nil
	}

	return "", nil
}

func (store *Store) Delete(ctx context.Context, filter stores.Filter) (int64, error) {
	res, err := store.coll.DeleteMany(ctx, bson.M(filter))

	if err != nil {
		return 0, classify("delete", err)
	}

	return res.DeletedCount, nil
}

func aggregate(ctx context.Context, coll *mongo.Collection, pipeline any) ([]bson.M, error) {
	cursor, err := coll.Aggregate(ctx, pipeline)

	if err != nil {
		return nil, classify("aggregate", err)
	}

	docs := []bson.M{}

	if err = cursor.All(ctx, &docs); err != nil {
		return nil, classify("aggregate", err)
	}

	return docs, nil
}
