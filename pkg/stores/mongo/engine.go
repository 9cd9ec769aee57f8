package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
Engine addresses any database and collection by name, which is how the
MCP tool server receives its requests.
*/
type Engine struct {
	client *mongo.Client
}

func NewEngine(client *mongo.Client) *Engine {
	return &Engine{client: client}
}

func (engine *Engine) collection(database, collection string) *mongo.Collection {
	return engine.client.Database(database).Collection(collection)
}

func (engine *Engine) Aggregate(ctx context.Context, database, collection string, pipeline []bson.D) ([]bson.M, error) {
	return aggregate(ctx, engine.collection(database, collection), mongo.Pipeline(pipeline))
}

func (engine *Engine) Find(
	ctx context.Context, database, collection string, filter, projection bson.D, limit int64,
) ([]bson.M, error) {
	opts := options.Find().SetLimit(limit)

	if len(projection) > 0 {
		opts.SetProjection(projection)
	}

	if filter == nil {
		filter = bson.D{}
	}

	cursor, err := engine.collection(database, collection).Find(ctx, filter, opts)

	if err != nil {
		return nil, classify("find", err)
	}

	docs := []bson.M{}

	if err = cursor.All(ctx, &docs); err != nil {
		return nil, classify("find", err)
	}

	return docs, nil
}

func (engine *Engine) InsertMany(ctx context.Context, database, collection string, documents []bson.D) ([]any, error) {
	docs := make([]any, len(documents))

	for i, doc := range documents {
		docs[i] = doc
	}

	res, err := engine.collection(database, collection).InsertMany(ctx, docs)

	if err != nil {
		return nil, classify("insert many", err)
	}

	return res.InsertedIDs, nil
}

func (engine *Engine) DeleteMany(ctx context.Context, database, collection string, filter bson.D) (int64, error) {
	if filter == nil {
		filter = bson.D{}
	}

	res, err := engine.collection(database, collection).DeleteMany(ctx, filter)

	if err != nil {
		return 0, classify("delete many", err)
	}

	return res.DeletedCount, nil
}
