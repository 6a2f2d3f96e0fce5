package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/okian/mvpcast/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// linear returns rows from y = 0.5 + 2*x0 - 1*x1 with a little noise,
// spread over the given seasons.
func linear(n int, seasons []int) ([][]float64, []float64, []int) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]float64, n)
	g := make([]int, n)
	for i := range x {
		a, b := rng.Float64()*10, rng.Float64()*5
		x[i] = []float64{a, b}
		y[i] = 0.5 + 2*a - b + rng.NormFloat64()*0.01
		g[i] = seasons[i%len(seasons)]
	}
	return x, y, g
}

func TestRidge(t *testing.T) {
	Convey("Given rows from a linear relation", t, func() {
		ctx := context.Background()
		x, y, g := linear(200, []int{2020, 2021, 2022, 2023})

		Convey("The fitted model recovers the coefficients", func() {
			m, err := scoring.NewRidge(scoring.WithAlphas([]float64{0.01})).FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			So(m.Weights[0], ShouldAlmostEqual, 2, 0.01)
			So(m.Weights[1], ShouldAlmostEqual, -1, 0.01)
			So(m.Intercept, ShouldAlmostEqual, 0.5, 0.05)
			So(m.CVFolds, ShouldEqual, 4)
			So(m.CVMAE, ShouldBeLessThan, 0.05)
		})

		Convey("The search prefers the alpha with the lowest held-out error", func() {
			m, err := scoring.NewRidge(scoring.WithAlphas([]float64{1e4, 0.01}), scoring.WithParallelism(2)).FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			So(m.Alpha, ShouldEqual, 0.01)
		})

		Convey("Fit satisfies the trainer contract", func() {
			var tr scoring.Trainer = scoring.NewRidge()
			p, err := tr.Fit(ctx, x, y, g)
			So(err, ShouldBeNil)
			pred, err := p.Predict(x[:3])
			So(err, ShouldBeNil)
			So(scoring.MAE(y[:3], pred), ShouldBeLessThan, 0.1)
			So(p.Kind(), ShouldEqual, scoring.KindRidge)
			So(p.Width(), ShouldEqual, len(x[0]))
			_, folds := p.CV()
			So(folds, ShouldBeGreaterThan, 1)
		})

		Convey("A single season skips the search", func() {
			single := make([]int, len(g))
			m, err := scoring.NewRidge().FitModel(ctx, x, y, single)
			So(err, ShouldBeNil)
			So(m.CVFolds, ShouldEqual, 0)
			So(m.Alpha, ShouldEqual, scoring.DefaultAlphas[0])
		})

		Convey("A cancelled context stops the search", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := scoring.NewRidge().FitModel(cctx, x, y, g)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("The model survives a JSON round trip", func() {
			m, _ := scoring.NewRidge().FitModel(ctx, x, y, g)
			raw, err := json.Marshal(m)
			So(err, ShouldBeNil)
			var back scoring.RidgeModel
			So(json.Unmarshal(raw, &back), ShouldBeNil)
			So(back, ShouldResemble, *m)
		})
	})

	Convey("Given malformed input", t, func() {
		ctx := context.Background()
		r := scoring.NewRidge()

		_, err := r.FitModel(ctx, nil, nil, nil)
		So(err, ShouldEqual, scoring.ErrNoRows)

		_, err = r.FitModel(ctx, [][]float64{{1}, {2}}, []float64{1}, []int{1, 2})
		So(errors.Is(err, scoring.ErrDimension), ShouldBeTrue)

		_, err = r.FitModel(ctx, [][]float64{{1}, {2, 3}}, []float64{1, 2}, []int{1, 2})
		So(errors.Is(err, scoring.ErrDimension), ShouldBeTrue)

		m := &scoring.RidgeModel{Weights: []float64{1, 2}}
		_, err = m.Predict([][]float64{{1}})
		So(errors.Is(err, scoring.ErrDimension), ShouldBeTrue)
	})
}

func TestMAE(t *testing.T) {
	Convey("MAE averages absolute errors", t, func() {
		So(scoring.MAE([]float64{1, 2, 3}, []float64{2, 2, 1}), ShouldEqual, 1)
		So(math.IsNaN(scoring.MAE(nil, nil)), ShouldBeTrue)
	})
}
