package stint

import (
	"math"

	"github.com/okian/mvpcast/internal/domain/table"
)

// PrimaryTeams maps each player-season in raw, uncollapsed rows to the team
// of its highest-minute stint. Combined-team rows and rows whose minutes do
// not parse are ignored; ties keep the earlier row. Player-seasons with no
// usable stint are absent from the result.
func PrimaryTeams(raw *table.Table, opts Options) map[Key]string {
	out := make(map[Key]string)
	keys, ok := Keys(raw)
	if !ok {
		return out
	}
	teams, ok := raw.StrOf("Team")
	if !ok {
		return out
	}
	mp, ok := raw.ToNumeric("MP")
	if !ok {
		return out
	}
	best := make(map[Key]float64)
	for i, k := range keys {
		if opts.IsCombined(teams[i]) || math.IsNaN(mp[i]) {
			continue
		}
		if cur, seen := best[k]; seen && mp[i] <= cur {
			continue
		}
		best[k] = mp[i]
		out[k] = teams[i]
	}
	return out
}
