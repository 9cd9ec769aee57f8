package search

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

/*
Hybrid describes a reciprocal-rank fusion query: the top results of a
vector search and a text search are each scored 1/(rank+priority+1),
summed per document, and sorted.
*/
type Hybrid struct {
	Collection     string
	VectorIndex    string
	VectorPath     string
	TextIndex      string
	TextPath       string
	Query          string
	Vector         []float32
	VectorPriority int
	TextPriority   int
	Limit          int
	Overrequest    int
}

var fusedFields = []string{"title", "plot", "year"}

/*
Pipeline renders the fusion as a single aggregation over Collection.
*/
func (hybrid Hybrid) Pipeline() mongo.Pipeline {
	overrequest := hybrid.Overrequest

	if overrequest <= 0 {
		overrequest = 10
	}

	limit := bson.D{{Key: "$limit", Value: hybrid.Limit}}

	textBranch := bson.A{
		bson.D{{Key: "$search", Value: bson.D{
			{Key: "index", Value: hybrid.TextIndex},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: hybrid.Query},
				{Key: "path", Value: hybrid.TextPath},
			}},
		}}},
		limit,
		groupAll(),
		rank(),
		rankScore(hybrid.TextPriority, "ts_score"),
		unpack("ts_score"),
	}

	return mongo.Pipeline{
		VectorSearch(hybrid.VectorIndex, hybrid.VectorPath, hybrid.Vector, hybrid.Limit, hybrid.Limit*overrequest),
		groupAll(),
		rank(),
		rankScore(hybrid.VectorPriority, "vs_score"),
		unpack("vs_score"),
		{{Key: "$unionWith", Value: bson.D{
			{Key: "coll", Value: hybrid.Collection},
			{Key: "pipeline", Value: textBranch},
		}}},
		combine(),
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "title", Value: 1},
			{Key: "plot", Value: 1},
			{Key: "year", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$let", Value: bson.D{
				{Key: "vars", Value: bson.D{
					{Key: "vs_score", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$vs_score", 0}}}},
					{Key: "ts_score", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$ts_score", 0}}}},
				}},
				{Key: "in", Value: bson.D{{Key: "$add", Value: bson.A{"$$vs_score", "$$ts_score"}}}},
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}}}},
		limit,
	}
}

func groupAll() bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "docs", Value: bson.D{{Key: "$push", Value: "$$ROOT"}}},
	}}}
}

func rank() bson.D {
	return bson.D{{Key: "$unwind", Value: bson.D{
		{Key: "path", Value: "$docs"},
		{Key: "includeArrayIndex", Value: "rank"},
	}}}
}

func rankScore(priority int, field string) bson.D {
	return bson.D{{Key: "$addFields", Value: bson.D{
		{Key: field, Value: bson.D{{Key: "$divide", Value: bson.A{
			1.0,
			bson.D{{Key: "$add", Value: bson.A{"$rank", priority, 1}}},
		}}}},
	}}}
}

func unpack(field string) bson.D {
	projection := bson.D{
		{Key: field, Value: 1},
		{Key: "_id", Value: "$docs._id"},
	}

	for _, name := range fusedFields {
		projection = append(projection, bson.E{Key: name, Value: "$docs." + name})
	}

	return bson.D{{Key: "$project", Value: projection}}
}

func combine() bson.D {
	group := bson.D{
		{Key: "_id", Value: "$_id"},
		{Key: "vs_score", Value: bson.D{{Key: "$max", Value: "$vs_score"}}},
		{Key: "ts_score", Value: bson.D{{Key: "$max", Value: "$ts_score"}}},
	}

	for _, name := range fusedFields {
		group = append(group, bson.E{Key: name, Value: bson.D{{Key: "$first", Value: "$" + name}}})
	}

	return bson.D{{Key: "$group", Value: group}}
}

/*
FuseScore is the score a document at the given zero-based rank gets from
one branch of the fusion.
*/
func FuseScore(rank, priority int) float64 {
	return 1.0 / float64(rank+priority+1)
}
