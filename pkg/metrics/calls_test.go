package metrics

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRecord(t *testing.T) {
	Convey("Given a calls instance", t, func() {
		m := NewCalls()

		m.Record("aggregate", false, 10*time.Millisecond)
		m.Record("aggregate", true, 30*time.Millisecond)
		m.Record("insert-many", false, 5*time.Millisecond)

		Convey("Then calls are summarized per name, busiest first", func() {
			snapshot := m.Snapshot()

			So(snapshot, ShouldHaveLength, 2)
			So(snapshot[0].Name, ShouldEqual, "aggregate")
			So(snapshot[0].Calls, ShouldEqual, int64(2))
			So(snapshot[0].Failures, ShouldEqual, int64(1))
			So(snapshot[0].Slowest, ShouldEqual, 30*time.Millisecond)
			So(snapshot[0].Average(), ShouldEqual, 20*time.Millisecond)
			So(snapshot[1].Name, ShouldEqual, "insert-many")
		})

		Convey("Then a snapshot is a copy", func() {
			snapshot := m.Snapshot()
			snapshot[0].Calls = 100

			So(m.Snapshot()[0].Calls, ShouldEqual, int64(2))
		})
	})
}

func TestNilCalls(t *testing.T) {
	Convey("Given a nil calls instance", t, func() {
		var m *Calls

		Convey("Then recording is a no-op", func() {
			So(func() { m.Record("find", false, time.Second) }, ShouldNotPanic)
			So(m.Snapshot(), ShouldBeEmpty)
		})
	})
}

func TestAverage(t *testing.T) {
	Convey("Given an empty summary", t, func() {
		Convey("Then its average is zero", func() {
			So(Summary{}.Average(), ShouldEqual, time.Duration(0))
		})
	})
}
