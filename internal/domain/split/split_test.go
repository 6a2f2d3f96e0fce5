package split_test

import (
	"errors"
	"testing"

	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func panel(years ...float64) *table.Table {
	t := table.New(len(years))
	t.SetNum(split.SeasonColumn, years)
	return t
}

func seasons(t *table.Table) map[int]bool {
	out := make(map[int]bool)
	g, _ := split.Groups(t)
	for _, y := range g {
		out[y] = true
	}
	return out
}

func TestSplit(t *testing.T) {
	Convey("Given a panel spanning six seasons", t, func() {
		p := panel(2020, 2021, 2021, 2022, 2023, 2023, 2024, 2025, 2024)
		plan := split.Plan{Train: []int{2020, 2021, 2022}, Validation: 2023, Test: 2024}

		sets, err := split.Split(p, plan)
		So(err, ShouldBeNil)

		Convey("Each set holds only its own seasons", func() {
			So(seasons(sets.Train), ShouldResemble, map[int]bool{2020: true, 2021: true, 2022: true})
			So(seasons(sets.Validation), ShouldResemble, map[int]bool{2023: true})
			So(seasons(sets.Test), ShouldResemble, map[int]bool{2024: true})
		})

		Convey("No row is in two sets and unplanned seasons are left out", func() {
			So(sets.Train.Len()+sets.Validation.Len()+sets.Test.Len(), ShouldEqual, p.Len()-1)
		})

		Convey("Rows keep their panel order", func() {
			g, _ := split.Groups(sets.Train)
			So(g, ShouldResemble, []int{2020, 2021, 2021, 2022})
		})
	})

	Convey("Given a panel without a season column", t, func() {
		p := table.New(1)
		p.SetStr("Player", []string{"A"})
		_, err := split.Split(p, split.Plan{Train: []int{2020}, Validation: 2021, Test: 2022})
		So(err, ShouldEqual, split.ErrMissingSeasonColumn)
	})

	Convey("Given overlapping plans", t, func() {
		p := panel(2020)
		_, err := split.Split(p, split.Plan{Train: []int{2020, 2021}, Validation: 2021, Test: 2022})
		So(errors.Is(err, split.ErrOverlap), ShouldBeTrue)
		_, err = split.Split(p, split.Plan{Train: []int{2020}, Validation: 2022, Test: 2022})
		So(errors.Is(err, split.ErrOverlap), ShouldBeTrue)
	})
}
