package local

import (
	"context"
	"testing"

	"github.com/philippgille/chromem-go"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/theapemachine/atlas-demos/pkg/stores"
)

func newStore() *Store {
	store, err := New(chromem.NewDB(), stores.Target{Database: "mcp_config", Collection: "agent_memory"})

	if err != nil {
		panic(err)
	}

	return store
}

func TestSearch(t *testing.T) {
	Convey("Given an empty store", t, func() {
		store := newStore()

		Convey("Then a search returns an empty result", func() {
			records, err := store.Search(context.Background(), []float32{1, 0, 0}, 3)

			So(err, ShouldBeNil)
			So(records, ShouldBeEmpty)
		})
	})

	Convey("Given a store with three records", t, func() {
		store := newStore()
		ctx := context.Background()

		for _, record := range []stores.Record{
			{Text: "I like sci-fi", Embedding: []float32{1, 0, 0}},
			{Text: "I dislike horror", Embedding: []float32{0, 1, 0}},
			{Text: "I like space operas", Embedding: []float32{0.9, 0.1, 0}},
		} {
			_, err := store.Insert(ctx, record)
			So(err, ShouldBeNil)
		}

		Convey("When searching close to the first record", func() {
			records, err := store.Search(ctx, []float32{1, 0, 0}, 5)

			Convey("Then all records come back by descending similarity", func() {
				So(err, ShouldBeNil)
				So(len(records), ShouldEqual, 3)
				So(records[0].Text, ShouldEqual, "I like sci-fi")
				So(records[1].Text, ShouldEqual, "I like space operas")
				So(records[0].Score, ShouldBeGreaterThanOrEqualTo, records[1].Score)
				So(records[1].Score, ShouldBeGreaterThanOrEqualTo, records[2].Score)
				So(records[0].CreatedAt.IsZero(), ShouldBeFalse)
			})
		})

		Convey("When everything is deleted", func() {
			count, err := store.Delete(ctx, stores.Filter{})

			Convey("Then the count is reported and searches come back empty", func() {
				So(err, ShouldBeNil)
				So(count, ShouldEqual, 3)

				records, err := store.Search(ctx, []float32{1, 0, 0}, 3)
				So(err, ShouldBeNil)
				So(records, ShouldBeEmpty)
			})
		})
	})
}

func TestDeleteMatching(t *testing.T) {
	Convey("Given records with different sources", t, func() {
		store := newStore()
		ctx := context.Background()

		store.Insert(ctx, stores.Record{Text: "a", Embedding: []float32{1, 0}, Fields: map[string]any{"source": "demo-client"}})
		store.Insert(ctx, stores.Record{Text: "b", Embedding: []float32{0, 1}, Fields: map[string]any{"source": "import"}})

		count, err := store.Delete(ctx, stores.Filter{"source": "import"})

		Convey("Then only the matching record is removed", func() {
			So(err, ShouldBeNil)
			So(count, ShouldEqual, 1)

			records, _ := store.Search(ctx, []float32{0, 1}, 5)
			So(len(records), ShouldEqual, 1)
			So(records[0].Text, ShouldEqual, "a")
			So(records[0].Field("source"), ShouldEqual, "demo-client")
		})
	})
}
