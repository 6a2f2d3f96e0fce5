package dataset

import (
	"fmt"
	"math"

	"github.com/okian/mvpcast/internal/domain/stint"
	"github.com/okian/mvpcast/internal/domain/table"
)

// BuildSeason joins one season's tables into a single row per player.
//
// Collapsed totals drive the result; advanced, per-100 and official
// per-game stats, votes and team standings are left-joined onto it, so a
// gap in any of them yields missing values and never drops a player. For
// completed seasons players under the games threshold are removed.
func BuildSeason(s *Season, opts Options) (*table.Table, Report, error) {
	rep := Report{Season: s.Year}
	if s.Totals == nil || s.PerGame == nil || s.PerPoss == nil || s.Advanced == nil || s.Standings == nil {
		return nil, rep, fmt.Errorf("season %d: %w", s.Year, ErrIncompleteSet)
	}
	so := opts.Stint()

	totals, err := stint.Collapse(s.Totals, so)
	if err != nil {
		return nil, rep, fmt.Errorf("season %d totals: %w", s.Year, err)
	}
	addPerGame(totals)
	keep := append([]string(nil), baseColumns...)
	for _, st := range perGameStats {
		keep = append(keep, st+"_per_g")
	}
	out := totals.Select(keep...)
	rep.Players = out.Len()

	adv, err := stint.Collapse(s.Advanced, so)
	if err != nil {
		return nil, rep, fmt.Errorf("season %d advanced: %w", s.Year, err)
	}
	if out, err = join(out, adv.Select(append(joinKey, advancedColumns...)...)); err != nil {
		return nil, rep, err
	}

	poss, err := stint.Collapse(s.PerPoss, so)
	if err != nil {
		return nil, rep, fmt.Errorf("season %d per-possession: %w", s.Year, err)
	}
	poss = poss.Select(append(joinKey, perPossColumns...)...).Suffix("_per100", "Player_clean", "season", "ORtg", "DRtg")
	if out, err = join(out, poss); err != nil {
		return nil, rep, err
	}

	pg, err := stint.Collapse(s.PerGame, so)
	if err != nil {
		return nil, rep, fmt.Errorf("season %d per-game: %w", s.Year, err)
	}
	pg = pg.Select(append(joinKey, officialPerGameColumns...)...).Suffix("_per_g_official", joinKey...)
	if out, err = join(out, pg); err != nil {
		return nil, rep, err
	}

	if out, err = attachVotes(out, s.Voting); err != nil {
		return nil, rep, fmt.Errorf("season %d voting: %w", s.Year, err)
	}

	out, rep.UnknownPrimaryTeam = attachPrimaryTeam(out, s.Totals, so)
	if rep.UnknownPrimaryTeam > 0 {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("season %d: %d players without a primary team", s.Year, rep.UnknownPrimaryTeam))
	}

	if out, rep.UnmatchedStandings, err = attachStandings(out, s.Standings); err != nil {
		return nil, rep, fmt.Errorf("season %d standings: %w", s.Year, err)
	}

	if opts.Completed(s.Year) {
		before := out.Len()
		out = out.Filter(minGames(out, opts.EligibilityMinGames))
		rep.DroppedIneligible = before - out.Len()
		if out.Len() == 0 && before > 0 {
			rep.Warnings = append(rep.Warnings,
				fmt.Sprintf("season %d: no players meet the %d-game threshold", s.Year, opts.EligibilityMinGames))
		}
	}
	rep.Rows = out.Len()
	return out, rep, nil
}

func join(left, right *table.Table) (*table.Table, error) {
	return table.LeftJoin(left, joinKey, right, joinKey)
}

// addPerGame derives stat/G for the box-score totals; G of 0 gives missing.
func addPerGame(t *table.Table) {
	g, ok := t.Num("G")
	if !ok {
		return
	}
	for _, st := range perGameStats {
		v, ok := t.Num(st)
		if !ok {
			continue
		}
		out := make([]float64, len(v))
		for i := range v {
			if g[i] == 0 || math.IsNaN(g[i]) {
				out[i] = math.NaN()
				continue
			}
			out[i] = v[i] / g[i]
		}
		t.SetNum(st+"_per_g", out)
	}
}

// attachVotes joins the vote columns and derives the label. Players with no
// vote record get a share of 0.
func attachVotes(t, voting *table.Table) (*table.Table, error) {
	if voting == nil {
		return t, nil
	}
	players, ok := voting.StrOf("Player")
	if !ok {
		return nil, fmt.Errorf("%w: Player", stint.ErrMissingKey)
	}
	v := voting.Select(append([]string{"season"}, votingColumns...)...)
	if !v.Has("season") {
		return t, nil
	}
	clean := make([]string, len(players))
	for i, p := range players {
		clean[i] = stint.PlayerKey(p)
	}
	v.SetStr("Player_clean", clean)
	out, err := join(t, v)
	if err != nil {
		return nil, err
	}
	share, ok := out.ToNumeric(LegacyLabelColumn)
	if !ok {
		return out, nil
	}
	filled := make([]float64, len(share))
	for i, x := range share {
		if math.IsNaN(x) {
			x = 0
		}
		filled[i] = x
	}
	out.SetNum(LegacyLabelColumn, filled)
	out.SetNum(LabelColumn, append([]float64(nil), filled...))
	return out, nil
}

// attachPrimaryTeam adds primary_team and returns how many stayed unknown.
func attachPrimaryTeam(t, rawTotals *table.Table, so stint.Options) (*table.Table, int) {
	resolved := stint.PrimaryTeams(rawTotals, so)
	rules := stint.DefaultRules(so)
	clean, _ := t.StrOf("Player_clean")
	seasons, _ := t.StrOf("season")
	teams, _ := t.StrOf("Team")
	out := make([]string, t.Len())
	unknown := 0
	for i := range out {
		k := stint.Key{Player: clean[i], Season: seasons[i]}
		c := stint.Candidate{Key: k, Resolved: resolved[k]}
		if teams != nil {
			c.Team = teams[i]
		}
		out[i] = stint.Resolve(c, rules)
		if out[i] == "" {
			unknown++
		}
	}
	t.SetStr("primary_team", out)
	return t, unknown
}

// attachStandings joins team context with a _team suffix on
// (primary_team, season). The team's own season columns are dropped in
// favour of the player's.
func attachStandings(t, standings *table.Table) (*table.Table, int, error) {
	right := standings.Suffix("_team")
	if !right.Has("team_abbrev_team") || !right.Has("season_team") {
		return nil, 0, fmt.Errorf("%w: team_abbrev/season", ErrIncompleteSet)
	}
	on := []string{"primary_team", "season"}
	rightOn := []string{"team_abbrev_team", "season_team"}
	matched, err := table.Matched(t, on, right, rightOn)
	if err != nil {
		return nil, 0, err
	}
	unmatched := 0
	for _, m := range matched {
		if !m {
			unmatched++
		}
	}
	// join on a copy so team_abbrev_team stays in the output
	abbrev, _ := right.StrOf("team_abbrev_team")
	right.SetStr("team_abbrev_key", abbrev)
	out, err := table.LeftJoin(t, on, right.Drop("season_end_year_team"), []string{"team_abbrev_key", "season_team"})
	if err != nil {
		return nil, 0, err
	}
	return out, unmatched, nil
}

func minGames(t *table.Table, floor int) []bool {
	keep := make([]bool, t.Len())
	g, ok := t.Num("G")
	if !ok {
		for i := range keep {
			keep[i] = true
		}
		return keep
	}
	for i, x := range g {
		keep[i] = !math.IsNaN(x) && x >= float64(floor)
	}
	return keep
}
