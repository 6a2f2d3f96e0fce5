package scoring

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/okian/mvpcast/pkg/logger"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultAlphas is the regularisation grid searched by Ridge.
var DefaultAlphas = []float64{0.01, 0.1, 1, 10, 100}

// Option applies a configuration option to the Ridge trainer.
type Option func(*Ridge)

// WithAlphas sets the regularisation grid. Non-positive values are ignored.
func WithAlphas(alphas []float64) Option {
	return func(r *Ridge) {
		var keep []float64
		for _, a := range alphas {
			if a > 0 {
				keep = append(keep, a)
			}
		}
		if len(keep) > 0 {
			r.alphas = keep
		}
	}
}

// WithParallelism bounds how many folds are fitted at once.
func WithParallelism(n int) Option {
	return func(r *Ridge) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// WithLogger sets the logger for the grid search.
func WithLogger(log logger.Logger) Option {
	return func(r *Ridge) {
		if log != nil {
			r.log = log
		}
	}
}

// Ridge fits an L2-regularised linear model with an unpenalised intercept.
// The alpha is chosen by leave-one-season-out cross-validation on MAE and
// the final model is refitted on all rows.
type Ridge struct {
	alphas      []float64
	parallelism int
	log         logger.Logger
}

// NewRidge creates a ridge trainer.
func NewRidge(opts ...Option) *Ridge {
	r := &Ridge{
		alphas:      slices.Clone(DefaultAlphas),
		parallelism: runtime.GOMAXPROCS(0),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RidgeModel is a fitted ridge model.
type RidgeModel struct {
	Alpha     float64   `json:"alpha"`
	Intercept float64   `json:"intercept"`
	Weights   []float64 `json:"weights"`
	// CVMAE is the mean held-out MAE of the chosen alpha. It is 0 when
	// fewer than two seasons were available and no search ran.
	CVMAE   float64 `json:"cv_mae"`
	CVFolds int     `json:"cv_folds"`
}

// Fit implements Trainer.
func (r *Ridge) Fit(ctx context.Context, x [][]float64, y []float64, groups []int) (Model, error) {
	return r.FitModel(ctx, x, y, groups)
}

// FitModel runs the grid search and returns the refitted model.
func (r *Ridge) FitModel(ctx context.Context, x [][]float64, y []float64, groups []int) (*RidgeModel, error) {
	if err := checkFit(x, y, groups); err != nil {
		return nil, err
	}

	folds := distinct(groups)
	alpha, cvMAE := r.alphas[0], 0.0
	if len(folds) >= 2 {
		var err error
		alpha, cvMAE, err = r.search(ctx, x, y, groups, folds)
		if err != nil {
			return nil, err
		}
	} else {
		r.log.Warn(ctx, "fewer than two seasons, skipping cross-validation",
			logger.Float64("alpha", alpha))
	}

	m, err := fitRidge(x, y, alpha)
	if err != nil {
		return nil, err
	}
	m.CVMAE = cvMAE
	if len(folds) >= 2 {
		m.CVFolds = len(folds)
	}
	return m, nil
}

func (r *Ridge) search(ctx context.Context, x [][]float64, y []float64, groups, folds []int) (float64, float64, error) {
	best, means, err := searchSeasons(ctx, r.parallelism, x, y, groups, folds, len(r.alphas),
		func(_ context.Context, c int, x [][]float64, y []float64) (Predictor, error) {
			m, err := fitRidge(x, y, r.alphas[c])
			if err != nil {
				return nil, fmt.Errorf("alpha %g: %w", r.alphas[c], err)
			}
			return m, nil
		})
	if err != nil {
		return 0, 0, err
	}
	for c, mae := range means {
		r.log.Debug(ctx, "ridge cv", logger.Float64("alpha", r.alphas[c]), logger.Float64("mae", mae))
	}
	return r.alphas[best], means[best], nil
}

// Predict implements Predictor.
func (m *RidgeModel) Predict(x [][]float64) ([]float64, error) {
	if err := checkShape(x, len(m.Weights)); err != nil {
		return nil, fmt.Errorf("%w: model has %d weights", err, len(m.Weights))
	}
	out := make([]float64, len(x))
	for i, row := range x {
		v := m.Intercept
		for j, w := range m.Weights {
			v += w * row[j]
		}
		out[i] = v
	}
	return out, nil
}

// fitRidge solves (XcᵀXc + αI)w = Xcᵀyc on centered data.
func fitRidge(x [][]float64, y []float64, alpha float64) (*RidgeModel, error) {
	n, p := len(x), len(x[0])
	yMean := stat.Mean(y, nil)
	if p == 0 {
		return &RidgeModel{Alpha: alpha, Intercept: yMean, Weights: []float64{}}, nil
	}

	means := make([]float64, p)
	for _, row := range x {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(n)
	}
	xc := mat.NewDense(n, p, nil)
	yc := mat.NewVecDense(n, nil)
	for i, row := range x {
		for j, v := range row {
			xc.Set(i, j, v-means[j])
		}
		yc.SetVec(i, y[i]-yMean)
	}

	var a mat.Dense
	a.Mul(xc.T(), xc)
	for j := 0; j < p; j++ {
		a.Set(j, j, a.At(j, j)+alpha)
	}
	var b, w mat.VecDense
	b.MulVec(xc.T(), yc)
	if err := w.SolveVec(&a, &b); err != nil {
		return nil, fmt.Errorf("solve ridge system: %w", err)
	}

	m := &RidgeModel{Alpha: alpha, Weights: make([]float64, p), Intercept: yMean}
	for j := range m.Weights {
		m.Weights[j] = w.AtVec(j)
		m.Intercept -= means[j] * m.Weights[j]
	}
	return m, nil
}

// Kind implements Model.
func (m *RidgeModel) Kind() string { return KindRidge }

// Width implements Model.
func (m *RidgeModel) Width() int { return len(m.Weights) }

// CV implements Model.
func (m *RidgeModel) CV() (float64, int) { return m.CVMAE, m.CVFolds }

// Subset implements Model. Dropped columns contribute nothing, as a zero
// value would.
func (m *RidgeModel) Subset(keep []int) Model {
	out := *m
	out.Weights = make([]float64, len(keep))
	for i, j := range keep {
		out.Weights[i] = m.Weights[j]
	}
	return &out
}
