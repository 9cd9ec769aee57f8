/*
Package search builds the aggregation pipelines of the Atlas search demos:
vector search, regex and fuzzy full-text search, and reciprocal-rank fusion
of the two.
*/
package search

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	VectorScore = "vectorSearchScore"
	SearchScore = "searchScore"
)

/*
VectorSearch builds a $vectorSearch stage.
*/
func VectorSearch(index, path string, vector []float32, limit, numCandidates int) bson.D {
	return bson.D{{Key: "$vectorSearch", Value: bson.D{
		{Key: "index", Value: index},
		{Key: "path", Value: path},
		{Key: "queryVector", Value: vector},
		{Key: "numCandidates", Value: numCandidates},
		{Key: "limit", Value: limit},
	}}}
}

/*
Project keeps the given fields plus a "score" taken from the search
metadata. When excludeID is set, _id is dropped from the output.
*/
func Project(meta string, excludeID bool, fields ...string) bson.D {
	projection := bson.D{}

	if excludeID {
		projection = append(projection, bson.E{Key: "_id", Value: 0})
	}

	for _, field := range fields {
		projection = append(projection, bson.E{Key: field, Value: 1})
	}

	projection = append(projection, bson.E{Key: "score", Value: bson.D{{Key: "$meta", Value: meta}}})

	return bson.D{{Key: "$project", Value: projection}}
}

/*
Similar is the similarity search pipeline every store runs.
*/
func Similar(index, path string, vector []float32, limit, numCandidates int, fields ...string) mongo.Pipeline {
	return mongo.Pipeline{
		VectorSearch(index, path, vector, limit, numCandidates),
		Project(VectorScore, false, fields...),
	}
}

/*
RegexTitle is the case-insensitive regex baseline of the full-text demo.
The term is matched literally.
*/
func RegexTitle(term string, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "title", Value: bson.D{
			{Key: "$regex", Value: regexp.QuoteMeta(term)},
			{Key: "$options", Value: "i"},
		}}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 0}}}},
	}
}

/*
FuzzyTitle runs an Atlas Search text query on title that tolerates up to
maxEdits typos.
*/
func FuzzyTitle(index, term string, maxEdits, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: term},
				{Key: "path", Value: "title"},
				{Key: "fuzzy", Value: bson.D{{Key: "maxEdits", Value: maxEdits}}},
			}},
		}}},
		{{Key: "$limit", Value: limit}},
		Project(SearchScore, true, "title"),
	}
}

/*
Text runs an Atlas Search text query across one or more paths.
*/
func Text(index, query string, paths []string, limit int) mongo.Pipeline {
	var path any = paths

	if len(paths) == 1 {
		path = paths[0]
	}

	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "text", Value: bson.D{
				{Key: "query", Value: query},
				{Key: "path", Value: path},
			}},
		}}},
		{{Key: "$limit", Value: limit}},
		Project(SearchScore, false, "title", "year"),
	}
}

/*
Semantic is the plot similarity query of the semantic search demo.
*/
func Semantic(index, path string, vector []float32, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		VectorSearch(index, path, vector, limit, 50),
		Project(VectorScore, false, "title", "plot"),
	}
}
