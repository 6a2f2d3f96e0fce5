// Package features derives model features from a panel and turns it into a
// numeric matrix.
package features

import (
	"math"

	"github.com/okian/mvpcast/internal/domain/table"
	"gonum.org/v1/gonum/stat"
)

// zEpsilon keeps single-player and zero-variance seasons finite.
const zEpsilon = 1e-8

var (
	per75Stats         = []string{"PTS", "TRB", "AST"}
	interactionMetrics = []string{"WS", "PER", "VORP"}

	// zScores maps a source metric to its within-season z-score column.
	zScores = []struct{ src, dst string }{
		{"PTS_per_g", "z_pts_pg"},
		{"TRB_per_g", "z_trb_pg"},
		{"AST_per_g", "z_ast_pg"},
		{"PER", "z_per"},
		{"WS", "z_ws"},
		{"BPM", "z_bpm"},
		{"VORP", "z_vorp"},
	}
)

// Engineer returns a copy of panel with derived features added. A feature
// is only added when every column it depends on is present.
func Engineer(panel *table.Table) *table.Table {
	t := panel.Clone()

	for _, st := range per75Stats {
		if v, ok := t.ToNumeric(st + "_per100"); ok {
			t.SetNum(st+"_per75", scale(v, 0.75))
		}
	}

	winPct, ok := t.ToNumeric("W/L%_team")
	if !ok {
		winPct, ok = t.ToNumeric("W/L%")
	}
	if ok {
		t.SetNum("team_win_pct", winPct)
		for _, m := range interactionMetrics {
			if v, ok := t.ToNumeric(m); ok {
				t.SetNum("team_win_pct_x_"+m, product(winPct, v))
			}
		}
	}

	ps, okPS := t.ToNumeric("PS/G_team")
	pa, okPA := t.ToNumeric("PA/G_team")
	if okPS && okPA {
		diff := make([]float64, len(ps))
		for i := range diff {
			diff[i] = ps[i] - pa[i]
		}
		t.SetNum("team_point_diff", diff)
	}

	seasons, ok := t.StrOf("season")
	if !ok {
		return t
	}
	_, groups := table.GroupIndex(seasons)
	for _, z := range zScores {
		if v, ok := t.ToNumeric(z.src); ok {
			t.SetNum(z.dst, zScore(v, groups))
		}
	}
	return t
}

func scale(v []float64, k float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * k
	}
	return out
}

func product(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] * b[i]
	}
	return out
}

// zScore standardises v within each group using the population standard
// deviation. Missing values are ignored for the group statistics and stay
// missing.
func zScore(v []float64, groups map[string][]int) []float64 {
	out := make([]float64, len(v))
	for _, idx := range groups {
		vals := make([]float64, 0, len(idx))
		for _, i := range idx {
			if !math.IsNaN(v[i]) {
				vals = append(vals, v[i])
			}
		}
		mean, std := math.NaN(), math.NaN()
		if len(vals) > 0 {
			mean, std = stat.PopMeanStdDev(vals, nil)
		}
		for _, i := range idx {
			out[i] = (v[i] - mean) / (std + zEpsilon)
		}
	}
	return out
}
