package scoring_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/okian/mvpcast/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// step returns rows where y jumps from 0.1 to 0.8 once x0 passes 5; x1 is
// noise.
func step(n int, seasons []int) ([][]float64, []float64, []int) {
	rng := rand.New(rand.NewPCG(3, 4))
	x := make([][]float64, n)
	y := make([]float64, n)
	g := make([]int, n)
	for i := range x {
		a, b := rng.Float64()*10, rng.Float64()
		x[i] = []float64{a, b}
		y[i] = 0.1
		if a > 5 {
			y[i] = 0.8
		}
		g[i] = seasons[i%len(seasons)]
	}
	return x, y, g
}

func smallForest(opts ...scoring.ForestOption) *scoring.Forest {
	grid := scoring.ForestGrid([]int{15}, []int{0, 2}, []int{1, 5})
	return scoring.NewForest(append([]scoring.ForestOption{scoring.WithForestGrid(grid)}, opts...)...)
}

func TestForest(t *testing.T) {
	Convey("Given rows from a step function", t, func() {
		ctx := context.Background()
		x, y, g := step(160, []int{2020, 2021, 2022, 2023})

		Convey("The fitted forest learns the step", func() {
			m, err := smallForest().FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			So(m.Trees, ShouldHaveLength, 15)
			So(m.CVFolds, ShouldEqual, 4)
			So(m.CVMAE, ShouldBeLessThan, 0.05)

			pred, err := m.Predict([][]float64{{1, 0.5}, {9, 0.5}})
			So(err, ShouldBeNil)
			So(pred[0], ShouldAlmostEqual, 0.1, 0.05)
			So(pred[1], ShouldAlmostEqual, 0.8, 0.05)
		})

		Convey("Fits with the same seed agree", func() {
			a, err := smallForest(scoring.WithForestParallelism(1)).FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			b, err := smallForest(scoring.WithForestParallelism(4)).FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			So(b.Trees, ShouldResemble, a.Trees)
			So(b.Params, ShouldResemble, a.Params)
		})

		Convey("Fit satisfies the trainer contract", func() {
			var tr scoring.Trainer = smallForest(scoring.WithMaxFeatures(0.5))
			m, err := tr.Fit(ctx, x, y, g)
			So(err, ShouldBeNil)
			So(m.Kind(), ShouldEqual, scoring.KindForest)
			So(m.Width(), ShouldEqual, 2)
			mae, folds := m.CV()
			So(folds, ShouldEqual, 4)
			So(mae, ShouldBeLessThan, 0.1)
		})

		Convey("A single season skips the search", func() {
			m, err := smallForest().FitModel(ctx, x, y, make([]int, len(g)))
			So(err, ShouldBeNil)
			So(m.CVFolds, ShouldEqual, 0)
			So(m.Params, ShouldResemble, scoring.ForestParams{Trees: 15, MaxDepth: 0, MinLeaf: 1})
		})

		Convey("A cancelled context stops the search", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := smallForest().FitModel(cctx, x, y, g)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("Narrowing to the present columns reads dropped ones as zero", func() {
			m, err := smallForest().FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			full, _ := m.Predict([][]float64{{9, 0}, {2, 0}})

			narrow := m.Subset([]int{0})
			So(narrow.Width(), ShouldEqual, 1)
			got, err := narrow.Predict([][]float64{{9}, {2}})
			So(err, ShouldBeNil)
			So(got, ShouldResemble, full)

			_, err = narrow.Predict([][]float64{{9, 0}})
			So(errors.Is(err, scoring.ErrDimension), ShouldBeTrue)
			So(m.Width(), ShouldEqual, 2)
		})

		Convey("The model survives a round trip through its kind", func() {
			m, err := smallForest().FitModel(ctx, x, y, g)
			So(err, ShouldBeNil)
			raw, err := json.Marshal(m.Subset([]int{1, 0}))
			So(err, ShouldBeNil)

			back, err := scoring.Decode(scoring.KindForest, raw)
			So(err, ShouldBeNil)
			want, _ := m.Predict([][]float64{{7, 0.2}})
			got, err := back.Predict([][]float64{{0.2, 7}})
			So(err, ShouldBeNil)
			So(got, ShouldResemble, want)
		})
	})

	Convey("Given persisted models", t, func() {
		Convey("An unknown kind is rejected", func() {
			_, err := scoring.Decode("xgboost", []byte(`{}`))
			So(errors.Is(err, scoring.ErrUnknownModel), ShouldBeTrue)
		})

		Convey("A forest pointing outside its nodes is rejected", func() {
			raw := []byte(`{"features":1,"columns":1,"trees":[{"nodes":[{"f":0,"t":1,"l":1,"r":7,"v":0}]}]}`)
			_, err := scoring.Decode(scoring.KindForest, raw)
			So(errors.Is(err, scoring.ErrDimension), ShouldBeTrue)
		})

		Convey("A ridge model decodes under its kind", func() {
			m, err := scoring.Decode(scoring.KindRidge, []byte(`{"alpha":1,"intercept":0.5,"weights":[2]}`))
			So(err, ShouldBeNil)
			pred, err := m.Predict([][]float64{{1}})
			So(err, ShouldBeNil)
			So(pred[0], ShouldEqual, 2.5)
		})
	})
}
