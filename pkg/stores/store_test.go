package stores

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSortByScore(t *testing.T) {
	Convey("Given records in arbitrary order with a tie", t, func() {
		records := []Record{
			{ID: "a", Score: 0.2},
			{ID: "b", Score: 0.9},
			{ID: "c", Score: 0.5},
			{ID: "d", Score: 0.9},
		}

		SortByScore(records)

		Convey("Then scores are non-increasing and ties keep their order", func() {
			So(records[0].ID, ShouldEqual, "b")
			So(records[1].ID, ShouldEqual, "d")
			So(records[2].ID, ShouldEqual, "c")
			So(records[3].ID, ShouldEqual, "a")
		})
	})
}

func TestCandidates(t *testing.T) {
	Convey("Given a target without a fixed candidate count", t, func() {
		target := Target{}

		So(target.Candidates(3), ShouldEqual, 50)
		So(target.Candidates(8), ShouldEqual, 80)
	})

	Convey("Given a target with a fixed candidate count", t, func() {
		So(Target{NumCandidates: 200}.Candidates(5), ShouldEqual, 200)
	})
}

func TestMemoryDocument(t *testing.T) {
	Convey("Given a memory record with an embedding", t, func() {
		created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
		doc := MemoryDocument(Record{Text: "I like sci-fi", Embedding: []float32{1, 0}, CreatedAt: created}, "embedding_voyage_v4")
		m := doc.Map()

		Convey("Then it has the memory collection shape", func() {
			So(m["text"], ShouldEqual, "I like sci-fi")
			So(m["tags"], ShouldResemble, bson.A{MemoryTag})
			So(m["source"], ShouldEqual, MemorySource)
			So(m["createdAt"], ShouldEqual, created)
			So(m["embedding_voyage_v4"], ShouldResemble, []float32{1, 0})
		})
	})
}

func TestFromDocument(t *testing.T) {
	Convey("Given a movie search result", t, func() {
		id := primitive.NewObjectID()
		record := FromDocument(bson.M{
			"_id":      id,
			"title":    "Alien",
			"genres":   bson.A{"Horror", "Sci-Fi"},
			"fullplot": "In space no one can hear you scream.",
			"score":    0.87,
		})

		So(record.ID, ShouldEqual, id.Hex())
		So(record.Score, ShouldEqual, 0.87)
		So(record.Field("title"), ShouldEqual, "Alien")
		So(record.Field("genres"), ShouldEqual, "Horror, Sci-Fi")
		So(record.Field("missing"), ShouldEqual, "")
	})

	Convey("Given a memory search result", t, func() {
		record := FromDocument(bson.M{"text": "I like sci-fi", "score": int32(1)})

		So(record.Text, ShouldEqual, "I like sci-fi")
		So(record.Score, ShouldEqual, 1.0)
	})
}
