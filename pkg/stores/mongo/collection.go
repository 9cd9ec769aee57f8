package mongo

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/backfill"
	"github.com/theapemachine/atlas-demos/pkg/indexes"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
Collection exposes the maintenance operations of one collection: batch
scans and bulk updates for backfills, search index management, and field
removal for cleanup.
*/
type Collection struct {
	coll *mongo.Collection
}

func NewCollection(client *mongo.Client, database, collection string) *Collection {
	return &Collection{coll: client.Database(database).Collection(collection)}
}

func (collection *Collection) Name() string {
	return collection.coll.Database().Name() + "." + collection.coll.Name()
}

func (collection *Collection) Scan(
	ctx context.Context, filter, projection bson.D, limit, batchSize int, fn func([]bson.M) error,
) error {
	opts := options.Find().SetBatchSize(int32(batchSize))

	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := collection.coll.Find(ctx, filter, opts)

	if err != nil {
		return classify("scan", err)
	}

	defer cursor.Close(ctx)

	batch := make([]bson.M, 0, batchSize)

	for cursor.Next(ctx) {
		var doc bson.M

		if err = cursor.Decode(&doc); err != nil {
			return classify("scan", err)
		}

		if batch = append(batch, doc); len(batch) == batchSize {
			if err = fn(batch); err != nil {
				return err
			}

			batch = make([]bson.M, 0, batchSize)
		}
	}

	if err = cursor.Err(); err != nil {
		return classify("scan", err)
	}

	if len(batch) > 0 {
		return fn(batch)
	}

	return nil
}

func (collection *Collection) Apply(ctx context.Context, updates []backfill.Update) (int64, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	models := make([]mongo.WriteModel, len(updates))

	for i, update := range updates {
		models[i] = mongo.NewUpdateOneModel().
			SetFilter(bson.D{{Key: "_id", Value: update.ID}}).
			SetUpdate(bson.D{{Key: "$set", Value: update.Set}})
	}

	res, err := collection.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))

	if err != nil {
		return 0, classify("bulk write", err)
	}

	return res.ModifiedCount, nil
}

/*
Unset removes field from every document that has it.
*/
func (collection *Collection) Unset(ctx context.Context, field string) (int64, error) {
	res, err := collection.coll.UpdateMany(ctx,
		bson.D{{Key: field, Value: bson.D{{Key: "$exists", Value: true}}}},
		bson.D{{Key: "$unset", Value: bson.D{{Key: field, Value: ""}}}},
	)

	if err != nil {
		return 0, classify("unset", err)
	}

	return res.ModifiedCount, nil
}

/*
Aggregate runs an arbitrary pipeline, used by the search demos.
*/
func (collection *Collection) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]bson.M, error) {
	return aggregate(ctx, collection.coll, pipeline)
}

func (collection *Collection) List(ctx context.Context, name string) ([]indexes.Status, error) {
	opts := options.SearchIndexes()

	if name != "" {
		opts.SetName(name)
	}

	cursor, err := collection.coll.SearchIndexes().List(ctx, opts)

	if err != nil {
		return nil, classify("list search indexes", err)
	}

	var docs []bson.M

	if err = cursor.All(ctx, &docs); err != nil {
		return nil, classify("list search indexes", err)
	}

	statuses := make([]indexes.Status, 0, len(docs))

	for _, doc := range docs {
		status := indexes.Status{}
		status.Name, _ = doc["name"].(string)
		status.Type, _ = doc["type"].(string)
		status.Status, _ = doc["status"].(string)
		status.Queryable, _ = doc["queryable"].(bool)
		statuses = append(statuses, status)
	}

	return statuses, nil
}

func (collection *Collection) Create(ctx context.Context, descriptor indexes.Descriptor) error {
	_, err := collection.coll.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: descriptor.Definition(),
		Options:    options.SearchIndexes().SetName(descriptor.Name).SetType(descriptor.Kind),
	})

	return classify("create search index", err)
}

func (collection *Collection) Drop(ctx context.Context, name string) error {
	return classify("drop search index", collection.coll.SearchIndexes().DropOne(ctx, name))
}

/*
EnsureMemory prepares the memory collection: the btree indexes the demo
queries by, and a seed record when the collection is empty. It reports
whether the seed was inserted.
*/
func (collection *Collection) EnsureMemory(ctx context.Context) (bool, error) {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject", Value: 1}}, Options: options.Index().SetName("subject_asc")},
		{Keys: bson.D{{Key: "created_at", Value: 1}}, Options: options.Index().SetName("created_at_asc")},
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetName("user_id_asc")},
	}

	names, err := collection.coll.Indexes().CreateMany(ctx, models)

	if err != nil {
		return false, classify("create indexes", err)
	}

	log.Info("memory indexes ensured", "collection", collection.Name(), "indexes", names)

	count, err := collection.coll.EstimatedDocumentCount(ctx)

	if err != nil {
		return false, classify("count", err)
	}

	if count > 0 {
		return false, nil
	}

	_, err = collection.coll.InsertOne(ctx, bson.D{
		{Key: "user_id", Value: "demo"},
		{Key: "subject", Value: "bootstrap"},
		{Key: "memory", Value: "This is the agent memory collection used for the MCP demo."},
		{Key: "created_at", Value: time.Now().UTC()},
	})

	if err != nil {
		return false, classify("seed memory", err)
	}

	return true, nil
}

/*
DropDatabase removes the database the collection lives in.
*/
func (collection *Collection) DropDatabase(ctx context.Context) error {
	return classify("drop database", collection.coll.Database().Drop(ctx))
}
