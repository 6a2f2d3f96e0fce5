// Package stint collapses a player's same-season team stints into one row
// and resolves the team a player spent most of the season with.
package stint

import (
	"strings"

	"github.com/okian/mvpcast/internal/domain/table"
)

// DefaultCombinedCodes are the team codes that mark a combined-season row.
// Older exports use TOT, newer ones use 2TM, 3TM and so on.
var DefaultCombinedCodes = []string{"TOT", "2TM", "3TM", "4TM", "5TM"}

// Options configures collapsing and primary-team resolution.
type Options struct {
	CombinedCodes []string
}

// IsCombined reports whether team is a combined-season code.
func (o Options) IsCombined(team string) bool {
	codes := o.CombinedCodes
	if codes == nil {
		codes = DefaultCombinedCodes
	}
	for _, c := range codes {
		if team == c {
			return true
		}
	}
	return false
}

// Key identifies one player-season.
type Key struct {
	Player string
	Season string
}

func (k Key) String() string { return k.Player + "::" + k.Season }

// PlayerKey normalises a display name for matching: lower case, "." and ","
// removed, whitespace collapsed.
func PlayerKey(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.NewReplacer(".", "", ",", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Keys returns the player-season key of every row. The table must carry
// Player and season columns.
func Keys(t *table.Table) ([]Key, bool) {
	players, ok := t.StrOf("Player")
	if !ok {
		return nil, false
	}
	seasons, ok := t.StrOf("season")
	if !ok {
		return nil, false
	}
	out := make([]Key, t.Len())
	for i := range out {
		out[i] = Key{Player: PlayerKey(players[i]), Season: seasons[i]}
	}
	return out, true
}
