package features_test

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/okian/mvpcast/internal/domain/features"
	"github.com/okian/mvpcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func panel() *table.Table {
	t := table.New(5)
	t.SetStr("Player", []string{"A", "B", "C", "D", "E"})
	t.SetStr("season", []string{"2023-24", "2023-24", "2023-24", "2024-25", "2024-25"})
	t.SetNum("season_end_year", []float64{2024, 2024, 2024, 2025, 2025})
	t.SetNum("PTS_per_g", []float64{30, 20, 10, 25, math.NaN()})
	t.SetNum("PTS_per100", []float64{40, 28, 12, 36, 10})
	t.SetNum("W/L%_team", []float64{0.7, 0.5, 0.3, 0.6, 0.4})
	t.SetNum("WS", []float64{14, 8, 2, 11, 1})
	t.SetNum("PS/G_team", []float64{118, 112, 108, 115, 110})
	t.SetNum("PA/G_team", []float64{110, 112, 114, 111, 113})
	t.SetNum("award_share", []float64{0.9, 0.1, 0, math.NaN(), 0})
	return t
}

func TestEngineer(t *testing.T) {
	Convey("Given a two-season panel", t, func() {
		in := panel()
		out := features.Engineer(in)

		Convey("The input is not modified", func() {
			So(in.Has("z_pts_pg"), ShouldBeFalse)
		})

		Convey("Per-75 stats scale the per-100 source", func() {
			v, ok := out.Num("PTS_per75")
			So(ok, ShouldBeTrue)
			So(v[0], ShouldEqual, 30)
			So(out.Has("TRB_per75"), ShouldBeFalse)
		})

		Convey("Team context features are derived", func() {
			win, _ := out.Num("team_win_pct")
			So(win[0], ShouldEqual, 0.7)
			x, _ := out.Num("team_win_pct_x_WS")
			So(x[0], ShouldAlmostEqual, 9.8, 1e-9)
			So(out.Has("team_win_pct_x_PER"), ShouldBeFalse)
			diff, _ := out.Num("team_point_diff")
			So(diff, ShouldResemble, []float64{8, 0, -6, 4, -3})
		})

		Convey("Z-scores center each season and keep the ranking", func() {
			z, ok := out.Num("z_pts_pg")
			So(ok, ShouldBeTrue)
			So(z[0]+z[1]+z[2], ShouldAlmostEqual, 0, 1e-9)
			raw, _ := out.Num("PTS_per_g")
			idx := []int{0, 1, 2}
			byRaw := append([]int(nil), idx...)
			byZ := append([]int(nil), idx...)
			sort.Slice(byRaw, func(a, b int) bool { return raw[byRaw[a]] > raw[byRaw[b]] })
			sort.Slice(byZ, func(a, b int) bool { return z[byZ[a]] > z[byZ[b]] })
			So(byZ, ShouldResemble, byRaw)
		})

		Convey("A single-player season stays finite and missing stays missing", func() {
			z, _ := out.Num("z_pts_pg")
			So(z[3], ShouldEqual, 0)
			So(math.IsNaN(z[4]), ShouldBeTrue)
		})
	})

	Convey("Given a panel without sources", t, func() {
		in := table.New(1)
		in.SetStr("Player", []string{"A"})
		out := features.Engineer(in)
		So(out.Columns(), ShouldResemble, []string{"Player"})
	})
}

func TestSelect(t *testing.T) {
	Convey("Given an engineered panel", t, func() {
		p := features.Engineer(panel())

		Convey("Rows without a label are dropped", func() {
			m, err := features.Select(p, "", features.DefaultPolicy())
			So(err, ShouldBeNil)
			So(m.Label, ShouldEqual, "award_share")
			So(m.Rows, ShouldResemble, []int{0, 1, 2, 4})
			So(m.Y, ShouldResemble, []float64{0.9, 0.1, 0, 0})
		})

		Convey("Inferred features exclude identifiers and labels", func() {
			m, _ := features.Select(p, "", features.DefaultPolicy())
			So(m.Columns, ShouldNotContain, "season_end_year")
			So(m.Columns, ShouldNotContain, "award_share")
			So(m.Columns, ShouldContain, "z_pts_pg")
		})

		Convey("Missing values are filled with zero", func() {
			m, _ := features.Select(p, "", features.Fixed([]string{"PTS_per_g"}))
			So(m.X[3], ShouldResemble, []float64{0})
		})

		Convey("A fixed column list keeps its order and skips absent columns", func() {
			m, err := features.Select(p, "", features.Fixed([]string{"WS", "nope", "PTS_per_g"}))
			So(err, ShouldBeNil)
			So(m.Columns, ShouldResemble, []string{"WS", "PTS_per_g"})
			So(m.Missing, ShouldResemble, []string{"nope"})
			So(m.Warnings, ShouldHaveLength, 1)
		})

		Convey("The caller's label takes priority", func() {
			p.SetNum("custom", []float64{1, 2, 3, 4, 5})
			m, err := features.Select(p, "custom", features.DefaultPolicy())
			So(err, ShouldBeNil)
			So(m.Label, ShouldEqual, "custom")
			So(m.Len(), ShouldEqual, 5)
		})

		Convey("A legacy label is used when the canonical one is absent", func() {
			q := p.Drop("award_share")
			q.SetNum("Voting_Share", []float64{0.5, 0, 0, 0, 0})
			m, err := features.Select(q, "", features.DefaultPolicy())
			So(err, ShouldBeNil)
			So(m.Label, ShouldEqual, "Voting_Share")
		})

		Convey("No label column is a configuration error naming the candidates", func() {
			_, err := features.Select(p.Drop("award_share"), "target", features.DefaultPolicy())
			So(errors.Is(err, features.ErrNoLabel), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "target award_share Voting_Share")
			So(err.Error(), ShouldContainSubstring, "PTS_per_g")
		})

		Convey("The unlabeled path keeps every row", func() {
			m := features.SelectUnlabeled(p.Drop("award_share"), []string{"WS", "gone"})
			So(m.Len(), ShouldEqual, 5)
			So(m.Y, ShouldBeNil)
			So(m.Columns, ShouldResemble, []string{"WS"})
			So(m.Missing, ShouldResemble, []string{"gone"})
		})
	})
}
