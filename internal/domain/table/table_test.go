package table_test

import (
	"math"
	"testing"

	"github.com/okian/mvpcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func sample() *table.Table {
	t := table.New(3)
	t.SetStr("Player", []string{"A", "B", "C"})
	t.SetNum("PTS", []float64{10, 20, math.NaN()})
	return t
}

func TestTable(t *testing.T) {
	Convey("Given a small table", t, func() {
		tb := sample()

		Convey("Then columns keep insertion order and kinds", func() {
			So(tb.Columns(), ShouldResemble, []string{"Player", "PTS"})
			k, ok := tb.Kind("PTS")
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, table.Numeric)
			So(tb.NumericColumns(), ShouldResemble, []string{"PTS"})
		})

		Convey("When filtering rows", func() {
			out := tb.Filter([]bool{true, false, true})

			Convey("Then the kept rows are returned in order", func() {
				names, _ := out.Str("Player")
				So(names, ShouldResemble, []string{"A", "C"})
				So(tb.Len(), ShouldEqual, 3)
			})
		})

		Convey("When renaming with a suffix", func() {
			out := tb.Suffix("_team", "Player")

			Convey("Then only the non-excepted columns change", func() {
				So(out.Columns(), ShouldResemble, []string{"Player", "PTS_team"})
			})
		})

		Convey("When concatenating tables with different columns", func() {
			other := table.New(1)
			other.SetStr("Player", []string{"D"})
			other.SetNum("AST", []float64{7})
			out := table.Concat(tb, other)

			Convey("Then the union of columns is filled with missing markers", func() {
				So(out.Len(), ShouldEqual, 4)
				So(out.Columns(), ShouldResemble, []string{"Player", "PTS", "AST"})
				pts, _ := out.Num("PTS")
				So(math.IsNaN(pts[3]), ShouldBeTrue)
				ast, _ := out.Num("AST")
				So(math.IsNaN(ast[0]), ShouldBeTrue)
				So(ast[3], ShouldEqual, 7)
			})
		})

		Convey("When concatenating a numeric and a string column of the same name", func() {
			other := table.New(1)
			other.SetStr("PTS", []string{"n/a"})
			out := table.Concat(tb, other)

			Convey("Then the column becomes a string column", func() {
				k, _ := out.Kind("PTS")
				So(k, ShouldEqual, table.String)
				v, _ := out.Str("PTS")
				So(v, ShouldResemble, []string{"10", "20", "", "n/a"})
			})
		})

		Convey("When setting a column of the wrong length", func() {
			Convey("Then it panics", func() {
				So(func() { tb.SetNum("X", []float64{1}) }, ShouldPanic)
			})
		})
	})
}

func TestLeftJoin(t *testing.T) {
	Convey("Given a left table and a lookup with one unmatched key", t, func() {
		left := table.New(3)
		left.SetStr("team", []string{"DEN", "XXX", ""})
		left.SetNum("PTS", []float64{1, 2, 3})
		right := table.New(2)
		right.SetStr("abbrev", []string{"DEN", "DEN"})
		right.SetNum("W", []float64{57, 1})

		Convey("When joined", func() {
			out, err := table.LeftJoin(left, []string{"team"}, right, []string{"abbrev"})
			So(err, ShouldBeNil)

			Convey("Then every left row survives with missing context when unmatched", func() {
				So(out.Len(), ShouldEqual, 3)
				So(out.Has("abbrev"), ShouldBeFalse)
				w, _ := out.Num("W")
				So(w[0], ShouldEqual, 57)
				So(math.IsNaN(w[1]), ShouldBeTrue)
				So(math.IsNaN(w[2]), ShouldBeTrue)
			})

			Convey("And Matched agrees", func() {
				m, err := table.Matched(left, []string{"team"}, right, []string{"abbrev"})
				So(err, ShouldBeNil)
				So(m, ShouldResemble, []bool{true, false, false})
			})
		})

		Convey("When a key column is missing", func() {
			_, err := table.LeftJoin(left, []string{"nope"}, right, []string{"abbrev"})
			So(err, ShouldNotBeNil)
		})
	})
}
