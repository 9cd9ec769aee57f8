package indexes

import (
	"go.mongodb.org/mongo-driver/bson"
)

const (
	KindVector = "vectorSearch"
	KindSearch = "search"
)

/*
Descriptor describes an Atlas Search or Vector Search index.
*/
type Descriptor struct {
	Name        string
	Kind        string
	Path        string
	Similarity  string
	Dimensions  int
	FilterPaths []string
	Dynamic     bool
	TextFields  map[string]string
}

/*
Vector describes a cosine-similarity vector index over path, with optional
pre-filter fields.
*/
func Vector(name, path string, dimensions int, filterPaths ...string) Descriptor {
	return Descriptor{
		Name:        name,
		Kind:        KindVector,
		Path:        path,
		Similarity:  "cosine",
		Dimensions:  dimensions,
		FilterPaths: filterPaths,
	}
}

/*
Text describes a full-text search index. fields maps each indexed string
field to its analyzer; an empty analyzer uses the index default.
*/
func Text(name string, dynamic bool, fields map[string]string) Descriptor {
	return Descriptor{
		Name:       name,
		Kind:       KindSearch,
		Dynamic:    dynamic,
		TextFields: fields,
	}
}

/*
Definition renders the index definition document Atlas expects.
*/
func (descriptor Descriptor) Definition() bson.D {
	if descriptor.Kind == KindVector {
		fields := bson.A{bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: descriptor.Path},
			{Key: "numDimensions", Value: descriptor.Dimensions},
			{Key: "similarity", Value: descriptor.Similarity},
		}}

		for _, path := range descriptor.FilterPaths {
			fields = append(fields, bson.D{
				{Key: "type", Value: "filter"},
				{Key: "path", Value: path},
			})
		}

		return bson.D{{Key: "fields", Value: fields}}
	}

	fields := bson.D{}

	for name, analyzer := range descriptor.TextFields {
		field := bson.D{{Key: "type", Value: "string"}}

		if analyzer != "" {
			field = append(field, bson.E{Key: "analyzer", Value: analyzer})
		}

		fields = append(fields, bson.E{Key: name, Value: field})
	}

	return bson.D{{Key: "mappings", Value: bson.D{
		{Key: "dynamic", Value: descriptor.Dynamic},
		{Key: "fields", Value: fields},
	}}}
}
