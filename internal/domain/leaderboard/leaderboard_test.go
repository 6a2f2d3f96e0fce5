package leaderboard_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/mvpcast/internal/domain/leaderboard"
	"github.com/okian/mvpcast/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func season(year float64, label string, players []string, games []float64) *table.Table {
	t := table.New(len(players))
	ys := make([]float64, len(players))
	ss := make([]string, len(players))
	teams := make([]string, len(players))
	pts := make([]float64, len(players))
	for i := range players {
		ys[i], ss[i], teams[i] = year, label, "DEN"
		pts[i] = float64(20 + i)
	}
	t.SetStr("Player", players)
	t.SetStr("primary_team", teams)
	t.SetNum("G", games)
	t.SetNum("PTS_per_g", pts)
	t.SetNum("season_end_year", ys)
	t.SetStr("season", ss)
	return t
}

func names(rows []leaderboard.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Player
	}
	return out
}

func TestBuild(t *testing.T) {
	Convey("Given three players in one season", t, func() {
		p := season(2026, "2025-26", []string{"A", "B", "C"}, []float64{40, 41, 50})

		Convey("The top-2 board is ordered by descending prediction", func() {
			boards, warnings, err := leaderboard.Build(p, []float64{0.9, 0.95, 0.1}, leaderboard.Options{MinGames: 9, TopK: 2})
			So(err, ShouldBeNil)
			So(warnings, ShouldBeEmpty)
			So(boards, ShouldHaveLength, 1)
			b := boards[0]
			So(b.Season, ShouldEqual, "2025-26")
			So(names(b.Rows), ShouldResemble, []string{"B", "A"})
			So(b.Rows[0].Rank, ShouldEqual, 1)
			So(b.Rows[0].Predicted, ShouldEqual, 0.95)
			So(b.Rows[0].Team, ShouldEqual, "DEN")
			So(b.Rows[0].Stats["PTS_per_g"], ShouldEqual, 21)
			So(b.Rows[1].Games, ShouldEqual, 40)
		})

		Convey("Equal predictions are ordered by player name", func() {
			boards, _, _ := leaderboard.Build(p, []float64{0.5, 0.5, 0.5}, leaderboard.DefaultOptions())
			So(names(boards[0].Rows), ShouldResemble, []string{"A", "B", "C"})
		})

		Convey("The games floor hides low-sample players", func() {
			boards, _, _ := leaderboard.Build(p, []float64{0.9, 0.95, 0.1}, leaderboard.Options{MinGames: 45, TopK: 10})
			So(names(boards[0].Rows), ShouldResemble, []string{"C"})
		})

		Convey("An empty season is a well-formed board with a warning", func() {
			boards, warnings, err := leaderboard.Build(p, []float64{0.9, 0.95, 0.1}, leaderboard.Options{MinGames: 82, TopK: 10})
			So(err, ShouldBeNil)
			So(boards[0].Rows, ShouldNotBeNil)
			So(boards[0].Rows, ShouldBeEmpty)
			So(warnings, ShouldHaveLength, 1)
		})

		Convey("Prediction count must match rows", func() {
			_, _, err := leaderboard.Build(p, []float64{1}, leaderboard.DefaultOptions())
			So(errors.Is(err, leaderboard.ErrLength), ShouldBeTrue)
		})
	})

	Convey("Given two seasons", t, func() {
		p := table.Concat(
			season(2026, "2025-26", []string{"X"}, []float64{70}),
			season(2025, "2024-25", []string{"Y"}, []float64{70}),
		)
		boards, _, err := leaderboard.Build(p, []float64{0.2, 0.3}, leaderboard.DefaultOptions())
		So(err, ShouldBeNil)
		So(boards, ShouldHaveLength, 2)
		So(boards[0].SeasonEndYear, ShouldEqual, 2025)
		So(boards[1].Rows[0].Player, ShouldEqual, "X")
	})
}

func TestEvaluate(t *testing.T) {
	Convey("Given a season with a clear winner", t, func() {
		p := season(2024, "2023-24", []string{"A", "B", "C"}, []float64{70, 70, 70})
		truth := []float64{0.8, 0.1, 0.05}

		Convey("A prediction ranking the winner first hits top-1", func() {
			rep, err := leaderboard.Evaluate(p, truth, []float64{0.7, 0.2, 0.1})
			So(err, ShouldBeNil)
			So(rep.Seasons, ShouldHaveLength, 1)
			So(rep.Seasons[0].Winner, ShouldEqual, "A")
			So(rep.Seasons[0].Top1, ShouldBeTrue)
			So(rep.Top1Rate, ShouldEqual, 1)
			So(rep.Seasons[0].Spearman, ShouldAlmostEqual, 1, 1e-12)
		})

		Convey("Ranking another player first misses top-1 but can hit top-3", func() {
			rep, err := leaderboard.Evaluate(p, truth, []float64{0.2, 0.7, 0.1})
			So(err, ShouldBeNil)
			So(rep.Seasons[0].Top1, ShouldBeFalse)
			So(rep.Seasons[0].Top3, ShouldBeTrue)
			So(rep.Top1Rate, ShouldEqual, 0)
			So(rep.Top3Rate, ShouldEqual, 1)
		})

		Convey("Constant predictions leave Spearman undefined", func() {
			rep, err := leaderboard.Evaluate(p, truth, []float64{0.3, 0.3, 0.3})
			So(err, ShouldBeNil)
			So(math.IsNaN(rep.Seasons[0].Spearman), ShouldBeTrue)
			So(math.IsNaN(rep.MeanSpearman), ShouldBeTrue)
		})

		Convey("MAE is reported overall and per season", func() {
			rep, _ := leaderboard.Evaluate(p, truth, []float64{0.7, 0.1, 0.05})
			So(rep.MAE, ShouldAlmostEqual, 0.1/3, 1e-12)
			So(rep.Seasons[0].MAE, ShouldAlmostEqual, rep.MAE, 1e-12)
		})
	})

	Convey("Aggregates skip undefined correlations", t, func() {
		p := table.Concat(
			season(2023, "2022-23", []string{"A", "B"}, []float64{70, 70}),
			season(2024, "2023-24", []string{"C", "D"}, []float64{70, 70}),
		)
		rep, err := leaderboard.Evaluate(p, []float64{0.9, 0.1, 0.8, 0.2}, []float64{0.5, 0.5, 0.6, 0.1})
		So(err, ShouldBeNil)
		So(rep.Seasons, ShouldHaveLength, 2)
		So(math.IsNaN(rep.Seasons[0].Spearman), ShouldBeTrue)
		So(rep.MeanSpearman, ShouldAlmostEqual, 1, 1e-12)
		So(rep.Top1Rate, ShouldEqual, 1)
	})

	Convey("Given two players tied on the true share", t, func() {
		p := season(2024, "2023-24", []string{"A", "B", "C"}, []float64{70, 70, 70})
		truth := []float64{0.6, 0.6, 0.1}

		Convey("The winner is the tied player predicted higher", func() {
			rep, err := leaderboard.Evaluate(p, truth, []float64{0.2, 0.5, 0.1})
			So(err, ShouldBeNil)
			So(rep.Seasons[0].Winner, ShouldEqual, "B")
			So(rep.Seasons[0].Top1, ShouldBeTrue)
		})

		Convey("The higher-predicted tied player wins even when ranked second", func() {
			rep, err := leaderboard.Evaluate(p, truth, []float64{0.5, 0.2, 0.9})
			So(err, ShouldBeNil)
			So(rep.Seasons[0].Winner, ShouldEqual, "A")
			So(rep.Seasons[0].Top1, ShouldBeFalse)
			So(rep.Seasons[0].Top3, ShouldBeTrue)
		})
	})

	Convey("Spearman uses average ranks for ties", t, func() {
		So(leaderboard.Spearman([]float64{1, 2, 2, 3}, []float64{1, 2, 2, 3}), ShouldAlmostEqual, 1, 1e-12)
		So(leaderboard.Spearman([]float64{1, 2, 3}, []float64{3, 2, 1}), ShouldAlmostEqual, -1, 1e-12)
		So(math.IsNaN(leaderboard.Spearman([]float64{1}, []float64{1})), ShouldBeTrue)
	})
}
