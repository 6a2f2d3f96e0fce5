package stint

import (
	"fmt"
	"math"

	"github.com/okian/mvpcast/internal/domain/table"
)

// identity columns take the first value instead of a sum.
var identity = map[string]bool{
	"season_end_year": true,
	"Age":             true,
	"Rk":              true,
}

// Collapse returns one row per (player key, season), adding Player_clean.
//
// When a combined-team row exists for a key it is kept verbatim and the
// per-stint rows are discarded. Otherwise numeric columns are summed over
// the stints and string columns take the first non-empty value. Rows come
// out in order of each key's first appearance.
func Collapse(t *table.Table, opts Options) (*table.Table, error) {
	keys, ok := Keys(t)
	if !ok {
		return nil, fmt.Errorf("collapse: %w", ErrMissingKey)
	}
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.String()
	}
	order, groups := table.GroupIndex(ids)
	teams, hasTeam := t.StrOf("Team")

	// pick: a single source row for the key, or -1 to aggregate.
	pick := make([]int, len(order))
	for g, id := range order {
		pick[g] = -1
		if !hasTeam {
			continue
		}
		for _, i := range groups[id] {
			if opts.IsCombined(teams[i]) {
				pick[g] = i
				break
			}
		}
	}

	out := table.New(len(order))
	for _, name := range t.Columns() {
		if v, ok := t.Num(name); ok {
			col := make([]float64, len(order))
			for g, id := range order {
				if pick[g] >= 0 {
					col[g] = v[pick[g]]
					continue
				}
				if identity[name] {
					col[g] = firstNum(v, groups[id])
				} else {
					col[g] = sum(v, groups[id])
				}
			}
			out.SetNum(name, col)
			continue
		}
		v, _ := t.Str(name)
		col := make([]string, len(order))
		for g, id := range order {
			if pick[g] >= 0 {
				col[g] = v[pick[g]]
				continue
			}
			col[g] = firstStr(v, groups[id])
		}
		out.SetStr(name, col)
	}

	clean := make([]string, len(order))
	for g, id := range order {
		clean[g] = keys[groups[id][0]].Player
	}
	out.SetStr("Player_clean", clean)
	return out, nil
}

// sum adds the non-missing values; a group with none stays missing.
func sum(v []float64, idx []int) float64 {
	total, seen := 0.0, false
	for _, i := range idx {
		if !math.IsNaN(v[i]) {
			total += v[i]
			seen = true
		}
	}
	if !seen {
		return math.NaN()
	}
	return total
}

func firstNum(v []float64, idx []int) float64 {
	for _, i := range idx {
		if !math.IsNaN(v[i]) {
			return v[i]
		}
	}
	return math.NaN()
}

func firstStr(v []string, idx []int) string {
	for _, i := range idx {
		if v[i] != "" {
			return v[i]
		}
	}
	return ""
}
