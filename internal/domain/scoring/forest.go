package scoring

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"slices"

	"github.com/okian/mvpcast/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ForestParams are the tree settings searched by Forest.
type ForestParams struct {
	Trees int `json:"trees"`
	// MaxDepth of 0 grows each tree until its leaves are pure or too small.
	MaxDepth int `json:"max_depth"`
	MinLeaf  int `json:"min_leaf"`
}

// Default forest grid values.
var (
	DefaultForestTrees    = []int{100}
	DefaultForestDepths   = []int{0, 5, 10}
	DefaultForestMinLeafs = []int{1, 5}
)

// ForestGrid returns every combination of the given values, trees varying
// slowest. Non-positive tree and leaf counts and negative depths are
// skipped.
func ForestGrid(trees, depths, minLeafs []int) []ForestParams {
	var out []ForestParams
	for _, t := range trees {
		for _, d := range depths {
			for _, l := range minLeafs {
				if t > 0 && d >= 0 && l > 0 {
					out = append(out, ForestParams{Trees: t, MaxDepth: d, MinLeaf: l})
				}
			}
		}
	}
	return out
}

// ForestOption applies a configuration option to the Forest trainer.
type ForestOption func(*Forest)

// WithForestGrid sets the parameter grid. An empty grid is ignored.
func WithForestGrid(grid []ForestParams) ForestOption {
	return func(f *Forest) {
		if len(grid) > 0 {
			f.grid = slices.Clone(grid)
		}
	}
}

// WithMaxFeatures sets the share of columns considered at each split.
// Values outside (0, 1] are ignored.
func WithMaxFeatures(share float64) ForestOption {
	return func(f *Forest) {
		if share > 0 && share <= 1 {
			f.maxFeatures = share
		}
	}
}

// WithSeed sets the seed for bootstrap samples and column draws.
func WithSeed(seed uint64) ForestOption {
	return func(f *Forest) {
		f.seed = seed
	}
}

// WithForestParallelism bounds how many trees or folds are fitted at once.
func WithForestParallelism(n int) ForestOption {
	return func(f *Forest) {
		if n > 0 {
			f.parallelism = n
		}
	}
}

// WithForestLogger sets the logger for the grid search.
func WithForestLogger(log logger.Logger) ForestOption {
	return func(f *Forest) {
		if log != nil {
			f.log = log
		}
	}
}

// Forest fits a bagged ensemble of regression trees split on squared error.
// The parameters are chosen by leave-one-season-out cross-validation on MAE
// and the final forest is refitted on all rows. Fits are deterministic for
// a given seed.
type Forest struct {
	grid        []ForestParams
	maxFeatures float64
	seed        uint64
	parallelism int
	log         logger.Logger
}

// NewForest creates a random forest trainer.
func NewForest(opts ...ForestOption) *Forest {
	f := &Forest{
		grid:        ForestGrid(DefaultForestTrees, DefaultForestDepths, DefaultForestMinLeafs),
		maxFeatures: 1,
		seed:        42,
		parallelism: runtime.GOMAXPROCS(0),
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fit implements Trainer.
func (f *Forest) Fit(ctx context.Context, x [][]float64, y []float64, groups []int) (Model, error) {
	return f.FitModel(ctx, x, y, groups)
}

// FitModel runs the grid search and returns the refitted forest.
func (f *Forest) FitModel(ctx context.Context, x [][]float64, y []float64, groups []int) (*ForestModel, error) {
	if err := checkFit(x, y, groups); err != nil {
		return nil, err
	}

	folds := distinct(groups)
	best, cvMAE := 0, 0.0
	if len(folds) >= 2 {
		b, means, err := searchSeasons(ctx, f.parallelism, x, y, groups, folds, len(f.grid),
			func(ctx context.Context, c int, x [][]float64, y []float64) (Predictor, error) {
				return f.grow(ctx, x, y, f.grid[c], 1)
			})
		if err != nil {
			return nil, err
		}
		for c, mae := range means {
			p := f.grid[c]
			f.log.Debug(ctx, "forest cv",
				logger.Int("trees", p.Trees),
				logger.Int("max_depth", p.MaxDepth),
				logger.Int("min_leaf", p.MinLeaf),
				logger.Float64("mae", mae),
			)
		}
		best, cvMAE = b, means[b]
	} else {
		f.log.Warn(ctx, "fewer than two seasons, skipping cross-validation",
			logger.Int("trees", f.grid[0].Trees))
	}

	m, err := f.grow(ctx, x, y, f.grid[best], f.parallelism)
	if err != nil {
		return nil, err
	}
	m.CVMAE = cvMAE
	if len(folds) >= 2 {
		m.CVFolds = len(folds)
	}
	return m, nil
}

func (f *Forest) grow(ctx context.Context, x [][]float64, y []float64, p ForestParams, parallelism int) (*ForestModel, error) {
	width := len(x[0])
	k := int(math.Ceil(f.maxFeatures * float64(width)))
	k = max(1, min(k, width))

	trees := make([]Tree, p.Trees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(f.seed, uint64(t)))
			sample := make([]int, len(x))
			for i := range sample {
				sample[i] = rng.IntN(len(x))
			}
			b := treeBuilder{x: x, y: y, params: p, features: k, width: width, rng: rng}
			b.grow(sample, 0)
			trees[t] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ForestModel{Params: p, Trees: trees, Features: width, Columns: width}, nil
}

// Node is one split or leaf of a Tree. Leaves have Feature -1.
type Node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// Tree is a regression tree stored as a flat node list rooted at 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t Tree) eval(row []float64, inputs []int) float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		var v float64
		switch {
		case inputs == nil:
			v = row[n.Feature]
		case inputs[n.Feature] >= 0:
			v = row[inputs[n.Feature]]
		}
		if v <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// ForestModel is a fitted random forest.
type ForestModel struct {
	Params ForestParams `json:"params"`
	Trees  []Tree       `json:"trees"`
	// Features is the column count the trees were grown on.
	Features int `json:"features"`
	// Columns is the column count Predict expects.
	Columns int `json:"columns"`
	// Inputs maps each grown feature to its column in a Predict row, -1
	// reading as zero. Nil means the identity.
	Inputs  []int   `json:"inputs,omitempty"`
	CVMAE   float64 `json:"cv_mae"`
	CVFolds int     `json:"cv_folds"`
}

// Predict implements Predictor with the mean of the trees.
func (m *ForestModel) Predict(x [][]float64) ([]float64, error) {
	if err := checkShape(x, m.Columns); err != nil {
		return nil, fmt.Errorf("%w: model reads %d columns", err, m.Columns)
	}
	if len(m.Trees) == 0 {
		return nil, fmt.Errorf("%w: forest has no trees", ErrDimension)
	}
	out := make([]float64, len(x))
	for i, row := range x {
		var sum float64
		for _, t := range m.Trees {
			sum += t.eval(row, m.Inputs)
		}
		out[i] = sum / float64(len(m.Trees))
	}
	return out, nil
}

// Kind implements Model.
func (m *ForestModel) Kind() string { return KindForest }

// Width implements Model.
func (m *ForestModel) Width() int { return m.Columns }

// CV implements Model.
func (m *ForestModel) CV() (float64, int) { return m.CVMAE, m.CVFolds }

// Subset implements Model. The trees are shared with m.
func (m *ForestModel) Subset(keep []int) Model {
	pos := make(map[int]int, len(keep))
	for i, c := range keep {
		pos[c] = i
	}
	out := *m
	out.Columns = len(keep)
	out.Inputs = make([]int, m.Features)
	for f := range out.Inputs {
		c := f
		if m.Inputs != nil {
			c = m.Inputs[f]
		}
		out.Inputs[f] = -1
		if i, ok := pos[c]; ok && c >= 0 {
			out.Inputs[f] = i
		}
	}
	return &out
}

func (m *ForestModel) validate() error {
	switch {
	case m.Inputs == nil && m.Columns != m.Features:
		return fmt.Errorf("%w: %d columns for %d features", ErrDimension, m.Columns, m.Features)
	case m.Inputs != nil && len(m.Inputs) != m.Features:
		return fmt.Errorf("%w: %d inputs for %d features", ErrDimension, len(m.Inputs), m.Features)
	}
	for _, c := range m.Inputs {
		if c >= m.Columns {
			return fmt.Errorf("%w: input %d beyond %d columns", ErrDimension, c, m.Columns)
		}
	}
	for t, tree := range m.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("%w: tree %d is empty", ErrDimension, t)
		}
		for i, n := range tree.Nodes {
			if n.Feature < 0 {
				continue
			}
			if n.Feature >= m.Features || n.Left <= i || n.Right <= i || n.Left >= len(tree.Nodes) || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("%w: tree %d node %d is malformed", ErrDimension, t, i)
			}
		}
	}
	return nil
}

type treeBuilder struct {
	x        [][]float64
	y        []float64
	params   ForestParams
	features int
	width    int
	rng      *rand.Rand
	nodes    []Node
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.nodes)
	var sum float64
	for _, i := range idx {
		sum += b.y[i]
	}
	b.nodes = append(b.nodes, Node{Feature: -1, Value: sum / float64(len(idx))})
	if len(idx) < 2*b.params.MinLeaf || (b.params.MaxDepth > 0 && depth >= b.params.MaxDepth) {
		return id
	}
	f, thr, ok := b.split(idx, sum)
	if !ok {
		return id
	}
	var left, right []int
	for _, i := range idx {
		if b.x[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id] = Node{Feature: f, Threshold: thr, Left: l, Right: r, Value: b.nodes[id].Value}
	return id
}

// split returns the column and threshold with the largest drop in squared
// error that leaves at least MinLeaf rows on each side.
func (b *treeBuilder) split(idx []int, sum float64) (int, float64, bool) {
	n := len(idx)
	parent := sum * sum / float64(n)
	bestF, bestThr, bestGain := -1, 0.0, 1e-12

	cols := make([]int, b.width)
	for j := range cols {
		cols[j] = j
	}
	if b.features < b.width {
		b.rng.Shuffle(len(cols), func(i, j int) { cols[i], cols[j] = cols[j], cols[i] })
		cols = cols[:b.features]
	}

	sorted := make([]int, n)
	for _, f := range cols {
		copy(sorted, idx)
		slices.SortFunc(sorted, func(a, c int) int { return cmp.Compare(b.x[a][f], b.x[c][f]) })
		var left float64
		for k := 0; k < n-1; k++ {
			left += b.y[sorted[k]]
			nl := k + 1
			if nl < b.params.MinLeaf || n-nl < b.params.MinLeaf {
				continue
			}
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			right := sum - left
			gain := left*left/float64(nl) + right*right/float64(n-nl) - parent
			if gain > bestGain {
				bestF, bestGain = f, gain
				bestThr = lo + (hi-lo)/2
				if bestThr >= hi {
					bestThr = lo
				}
			}
		}
	}
	return bestF, bestThr, bestF >= 0
}
