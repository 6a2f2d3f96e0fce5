// Package scoring defines the contract for fitting a regression model on a
// feature matrix and provides ridge and random forest trainers.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Model kinds as persisted in a bundle.
const (
	KindRidge  = "ridge"
	KindForest = "forest"
)

// Trainer fits a model. groups holds the season of each row; trainers that
// cross-validate hold out one group at a time.
type Trainer interface {
	Fit(ctx context.Context, x [][]float64, y []float64, groups []int) (Model, error)
}

// Predictor scores rows with the column layout it was fitted on.
type Predictor interface {
	Predict(x [][]float64) ([]float64, error)
}

// Model is a fitted predictor that can be persisted and narrowed to the
// columns available at scoring time.
type Model interface {
	Predictor
	// Kind names the model family, see Decode.
	Kind() string
	// Width is the number of columns Predict expects.
	Width() int
	// Subset returns a model reading only the input columns at keep, in
	// that order. Columns left out read as zero.
	Subset(keep []int) Model
	// CV returns the held-out MAE of the chosen parameters and the number
	// of season folds. folds is 0 when no search ran.
	CV() (mae float64, folds int)
}

// Decode restores a model persisted under kind.
func Decode(kind string, raw []byte) (Model, error) {
	var m Model
	switch kind {
	case KindRidge:
		m = &RidgeModel{}
	case KindForest:
		m = &ForestModel{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, kind)
	}
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("decode %s model: %w", kind, err)
	}
	if v, ok := m.(interface{ validate() error }); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("decode %s model: %w", kind, err)
		}
	}
	return m, nil
}

// MAE returns the mean absolute error, or NaN for empty input.
func MAE(y, yhat []float64) float64 {
	if len(y) == 0 || len(y) != len(yhat) {
		return math.NaN()
	}
	abs := make([]float64, len(y))
	for i := range y {
		abs[i] = math.Abs(y[i] - yhat[i])
	}
	return stat.Mean(abs, nil)
}

func checkShape(x [][]float64, width int) error {
	for _, row := range x {
		if len(row) != width {
			return ErrDimension
		}
	}
	return nil
}

func checkFit(x [][]float64, y []float64, groups []int) error {
	if len(x) == 0 {
		return ErrNoRows
	}
	if len(y) != len(x) || len(groups) != len(x) {
		return fmt.Errorf("%w: %d rows, %d labels, %d groups", ErrDimension, len(x), len(y), len(groups))
	}
	return checkShape(x, len(x[0]))
}

type fitFunc func(ctx context.Context, candidate int, x [][]float64, y []float64) (Predictor, error)

// searchSeasons fits every candidate once per held-out season and returns
// the candidate with the lowest mean held-out MAE together with every
// candidate's mean. Ties keep the earlier candidate.
func searchSeasons(ctx context.Context, parallelism int, x [][]float64, y []float64, groups, folds []int, candidates int, fit fitFunc) (int, []float64, error) {
	scores := make([][]float64, candidates)
	for c := range scores {
		scores[c] = make([]float64, len(folds))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for c := range scores {
		for f, fold := range folds {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				trX, trY, teX, teY := holdOut(x, y, groups, fold)
				m, err := fit(gctx, c, trX, trY)
				if err != nil {
					return fmt.Errorf("season %d: %w", fold, err)
				}
				pred, err := m.Predict(teX)
				if err != nil {
					return err
				}
				scores[c][f] = MAE(teY, pred)
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	means := make([]float64, candidates)
	best := 0
	for c := range scores {
		means[c] = stat.Mean(scores[c], nil)
		if means[c] < means[best] || math.IsNaN(means[best]) {
			best = c
		}
	}
	return best, means, nil
}

func holdOut(x [][]float64, y []float64, groups []int, fold int) (trX [][]float64, trY []float64, teX [][]float64, teY []float64) {
	for i, g := range groups {
		if g == fold {
			teX, teY = append(teX, x[i]), append(teY, y[i])
			continue
		}
		trX, trY = append(trX, x[i]), append(trY, y[i])
	}
	return
}

func distinct(groups []int) []int {
	out := slices.Clone(groups)
	slices.Sort(out)
	return slices.Compact(out)
}
