package mcpstore

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"github.com/theapemachine/atlas-demos/pkg/stores"
)

type call struct {
	name string
	args map[string]any
}

type fakeCaller struct {
	calls   []call
	replies map[string][]string
	failure error
}

func (caller *fakeCaller) Call(_ context.Context, name string, args map[string]any) ([]string, error) {
	caller.calls = append(caller.calls, call{name: name, args: args})

	if caller.failure != nil {
		return nil, caller.failure
	}

	return caller.replies[name], nil
}

func memoryTarget() stores.Target {
	return stores.Target{
		Database:   "mcp_config",
		Collection: "agent_memory",
		Index:      "memory_voyage_v4",
		Path:       "embedding_voyage_v4",
		Project:    []string{"text"},
	}
}

func TestStore(t *testing.T) {
	Convey("Given a store over a tool caller", t, func() {
		caller := &fakeCaller{replies: map[string][]string{
			"aggregate": {
				"Found 2 documents in the collection \"agent_memory\".",
				`[{"text":"low","score":0.2},{"text":"high","score":0.8}]`,
			},
			"insert-many": {
				"Inserted 1 document(s) into collection \"agent_memory\".",
				`{"insertedIds":["65f0c0ffee0000000000abcd"]}`,
			},
			"delete-many": {`{"deletedCount": 2}`},
		}}

		store := New(caller, memoryTarget())

		Convey("Search should send a vector search and order by score", func() {
			records, err := store.Search(context.Background(), []float32{0.1, 0.2}, 3)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 2)
			So(records[0].Text, ShouldEqual, "high")
			So(records[1].Text, ShouldEqual, "low")

			So(caller.calls, ShouldHaveLength, 1)
			So(caller.calls[0].name, ShouldEqual, "aggregate")
			So(caller.calls[0].args["database"], ShouldEqual, "mcp_config")

			pipeline := caller.calls[0].args["pipeline"].([]any)
			stage := pipeline[0].(map[string]any)["$vectorSearch"].(map[string]any)
			So(stage["index"], ShouldEqual, "memory_voyage_v4")
			So(stage["numCandidates"], ShouldEqual, float64(50))
			So(stage["limit"], ShouldEqual, float64(3))
		})

		Convey("Insert should send one memory document", func() {
			id, err := store.Insert(context.Background(), stores.Record{
				Text:      "I like sci-fi",
				Embedding: []float32{0.5, 0.5},
			})
			So(err, ShouldBeNil)
			So(id, ShouldEqual, "65f0c0ffee0000000000abcd")

			docs := caller.calls[0].args["documents"].([]any)
			So(docs, ShouldHaveLength, 1)

			doc := docs[0].(map[string]any)
			So(doc["text"], ShouldEqual, "I like sci-fi")
			So(doc["source"], ShouldEqual, stores.MemorySource)
			So(doc["embedding_voyage_v4"], ShouldHaveLength, 2)
			So(doc["createdAt"], ShouldContainKey, "$date")
		})

		Convey("Delete should parse the deleted count", func() {
			count, err := store.Delete(context.Background(), nil)
			So(err, ShouldBeNil)
			So(count, ShouldEqual, int64(2))
			So(caller.calls[0].args["filter"], ShouldBeEmpty)
		})

		Convey("Failures should surface unchanged", func() {
			caller.failure = errors.NotReady("mcp aggregate", "index not found")

			_, err := store.Search(context.Background(), []float32{0.1}, 3)
			So(errors.Is(err, errors.ErrNotReady), ShouldBeTrue)
		})
	})
}
