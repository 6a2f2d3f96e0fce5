package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/mvpcast/internal/domain/table"
	"gonum.org/v1/gonum/stat"
)

// SeasonEval scores one season's ranking.
type SeasonEval struct {
	Season string
	MAE    float64
	// Winner is the player with the highest true share.
	Winner   string
	Top1     bool
	Top3     bool
	Spearman float64
}

// Report aggregates per-season scores. Hit rates and Spearman are simple
// means over seasons; undefined Spearman values are skipped.
type Report struct {
	MAE          float64
	Top1Rate     float64
	Top3Rate     float64
	MeanSpearman float64
	Seasons      []SeasonEval
}

// Evaluate compares true and predicted shares for the rows of t, season by
// season. Only meaningful for seasons with known outcomes.
func Evaluate(t *table.Table, yTrue, yPred []float64) (Report, error) {
	if len(yTrue) != t.Len() || len(yPred) != t.Len() {
		return Report{}, fmt.Errorf("%w: %d true, %d predicted, %d rows", ErrLength, len(yTrue), len(yPred), t.Len())
	}
	seasons, ok := t.StrOf("season")
	if !ok {
		return Report{}, fmt.Errorf("%w: season", ErrMissingColumn)
	}
	players, ok := t.StrOf("Player")
	if !ok {
		return Report{}, fmt.Errorf("%w: Player", ErrMissingColumn)
	}

	rep := Report{MAE: mae(yTrue, yPred)}
	order, groups := table.GroupIndex(seasons)
	var top1, top3, rhos []float64
	for _, s := range order {
		idx := groups[s]
		ev := SeasonEval{Season: s}
		tr := make([]float64, len(idx))
		pr := make([]float64, len(idx))
		for k, i := range idx {
			tr[k], pr[k] = yTrue[i], yPred[i]
		}
		ev.MAE = mae(tr, pr)

		// Ties on the true share go to the highest-predicted player.
		ranked := append([]int(nil), idx...)
		rankIndices(ranked, yPred, players)
		winner := ranked[0]
		for _, i := range ranked[1:] {
			if yTrue[i] > yTrue[winner] {
				winner = i
			}
		}
		ev.Winner = players[winner]
		for pos, i := range ranked {
			if pos >= 3 {
				break
			}
			if i == winner {
				ev.Top3 = true
				ev.Top1 = pos == 0
			}
		}
		ev.Spearman = Spearman(tr, pr)

		top1 = append(top1, boolFloat(ev.Top1))
		top3 = append(top3, boolFloat(ev.Top3))
		if !math.IsNaN(ev.Spearman) {
			rhos = append(rhos, ev.Spearman)
		}
		rep.Seasons = append(rep.Seasons, ev)
	}
	rep.Top1Rate = meanOrNaN(top1)
	rep.Top3Rate = meanOrNaN(top3)
	rep.MeanSpearman = meanOrNaN(rhos)
	return rep, nil
}

// Spearman returns the rank correlation of a and b with average ranks for
// ties. It is NaN when either input is constant or has fewer than two
// values.
func Spearman(a, b []float64) float64 {
	if len(a) < 2 || len(a) != len(b) {
		return math.NaN()
	}
	ra, rb := ranks(a), ranks(b)
	if constant(ra) || constant(rb) {
		return math.NaN()
	}
	return stat.Correlation(ra, rb, nil)
}

func ranks(v []float64) []float64 {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return v[idx[a]] < v[idx[b]] })
	out := make([]float64, len(v))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && v[idx[j+1]] == v[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

func mae(a, b []float64) float64 {
	d := make([]float64, len(a))
	for i := range a {
		d[i] = math.Abs(a[i] - b[i])
	}
	return meanOrNaN(d)
}

func meanOrNaN(v []float64) float64 {
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
