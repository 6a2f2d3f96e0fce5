package source

import (
	"fmt"
	"math"

	"github.com/okian/mvpcast/internal/domain/table"
)

// StandingsColumns are the columns kept from a cleaned standings table.
var StandingsColumns = []string{
	"team_abbrev", "W", "L", "W/L%", "GB",
	"PS/G", "PA/G", "SRS", "Conference",
	"season_end_year", "season",
}

var standingsNumeric = []string{"W", "L", "W/L%", "GB", "PS/G", "PA/G", "SRS"}

// isDash reports whether a cell is one of the placeholders used for
// "games behind: none", including the mojibake left by a latin-1 read.
func isDash(s string) bool {
	switch s {
	case "-", "—", "–", "â", "â\u0080\u0094":
		return true
	}
	return false
}

// CleanStandings drops division header rows, maps full team names to
// codes and coerces the numeric columns. GB dashes become 0.
func CleanStandings(raw *table.Table) (*table.Table, error) {
	for _, c := range []string{"Team", "W"} {
		if !raw.Has(c) {
			return nil, fmt.Errorf("%w: standings.%s", ErrMissingColumn, c)
		}
	}

	w, _ := raw.StrOf("W")
	keep := make([]bool, raw.Len())
	for i, cell := range w {
		_, num := table.ParseFloat(cell)
		keep[i] = num || isDash(cell)
	}
	t := raw.Filter(keep)

	teams, _ := t.StrOf("Team")
	abbrev := make([]string, len(teams))
	for i, name := range teams {
		abbrev[i] = TeamAbbrev(name)
	}
	t.SetStr("team_abbrev", abbrev)

	if gb, ok := t.StrOf("GB"); ok {
		v := make([]float64, len(gb))
		for i, cell := range gb {
			switch f, ok := table.ParseFloat(cell); {
			case ok:
				v[i] = f
			case isDash(cell):
				v[i] = 0
			default:
				v[i] = math.NaN()
			}
		}
		t.SetNum("GB", v)
	}
	for _, c := range standingsNumeric {
		if c == "GB" {
			continue
		}
		if v, ok := t.ToNumeric(c); ok {
			t.SetNum(c, v)
		}
	}
	return t.Select(StandingsColumns...), nil
}
