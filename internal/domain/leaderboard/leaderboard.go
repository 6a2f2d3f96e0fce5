// Package leaderboard ranks predicted award shares per season and scores
// those rankings against known outcomes.
package leaderboard

import (
	"fmt"
	"math"
	"sort"

	"github.com/okian/mvpcast/internal/domain/table"
	"github.com/okian/mvpcast/pkg/metrics"
)

// DefaultColumns are the stats carried on each leaderboard row when present.
var DefaultColumns = []string{"PTS_per_g", "TRB_per_g", "AST_per_g", "PER", "WS", "BPM"}

// Options controls Build.
type Options struct {
	// MinGames is the display floor. It is separate from, and usually lower
	// than, the panel eligibility threshold.
	MinGames int
	TopK     int
	// Columns are copied into Row.Stats. Nil means DefaultColumns.
	Columns []string
}

// DefaultOptions returns a top-10 board with a 9-game floor.
func DefaultOptions() Options {
	return Options{MinGames: 9, TopK: 10}
}

// Row is one ranked player.
type Row struct {
	Rank          int
	Player        string
	Team          string
	Season        string
	SeasonEndYear int
	Predicted     float64
	Games         float64
	Stats         map[string]float64
}

// Board is one season's leaderboard.
type Board struct {
	SeasonEndYear int
	Season        string
	Rows          []Row
}

// Build attaches preds to t and returns one board per season in ascending
// season order. A season with no player over the games floor yields an
// empty board and a warning.
func Build(t *table.Table, preds []float64, opts Options) ([]Board, []string, error) {
	if len(preds) != t.Len() {
		return nil, nil, fmt.Errorf("%w: %d predictions for %d rows", ErrLength, len(preds), t.Len())
	}
	years, ok := t.ToNumeric("season_end_year")
	if !ok {
		return nil, nil, fmt.Errorf("%w: season_end_year", ErrMissingColumn)
	}
	players, _ := t.StrOf("Player")
	teams, _ := t.StrOf("primary_team")
	seasons, _ := t.StrOf("season")
	games, hasGames := t.ToNumeric("G")
	cols := opts.Columns
	if cols == nil {
		cols = DefaultColumns
	}
	stats := make(map[string][]float64, len(cols))
	for _, c := range cols {
		if v, ok := t.ToNumeric(c); ok {
			stats[c] = v
		}
	}

	byYear := make(map[int][]int)
	for i, y := range years {
		if !math.IsNaN(y) {
			byYear[int(y)] = append(byYear[int(y)], i)
		}
	}
	order := make([]int, 0, len(byYear))
	for y := range byYear {
		order = append(order, y)
	}
	sort.Ints(order)

	var warnings []string
	boards := make([]Board, 0, len(order))
	for _, year := range order {
		b := Board{SeasonEndYear: year, Season: seasonLabel(year)}
		var idx []int
		for _, i := range byYear[year] {
			if seasons != nil && seasons[i] != "" {
				b.Season = seasons[i]
			}
			if hasGames && !(games[i] >= float64(opts.MinGames)) {
				continue
			}
			idx = append(idx, i)
		}
		if len(idx) == 0 {
			metrics.RecordLeaderboardEmpty()
			warnings = append(warnings,
				fmt.Sprintf("season %d: no players with at least %d games", year, opts.MinGames))
			b.Rows = []Row{}
			boards = append(boards, b)
			continue
		}
		rankIndices(idx, preds, players)
		if opts.TopK > 0 && len(idx) > opts.TopK {
			idx = idx[:opts.TopK]
		}
		b.Rows = make([]Row, len(idx))
		for r, i := range idx {
			row := Row{
				Rank:          r + 1,
				Season:        b.Season,
				SeasonEndYear: year,
				Predicted:     preds[i],
				Games:         math.NaN(),
				Stats:         make(map[string]float64, len(stats)),
			}
			if players != nil {
				row.Player = players[i]
			}
			if teams != nil {
				row.Team = teams[i]
			}
			if hasGames {
				row.Games = games[i]
			}
			for c, v := range stats {
				row.Stats[c] = v[i]
			}
			b.Rows[r] = row
		}
		boards = append(boards, b)
	}
	return boards, warnings, nil
}

// rankIndices sorts idx by descending prediction, then player name. Missing
// predictions sort last.
func rankIndices(idx []int, preds []float64, players []string) {
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := preds[idx[a]], preds[idx[b]]
		switch {
		case math.IsNaN(pa) != math.IsNaN(pb):
			return math.IsNaN(pb)
		case pa != pb && !math.IsNaN(pa):
			return pa > pb
		}
		if players == nil {
			return false
		}
		return players[idx[a]] < players[idx[b]]
	})
}

func seasonLabel(year int) string {
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}
