// Package dataset turns raw season tables into per-player season datasets
// and stacks them into a panel.
package dataset

import (
	"github.com/okian/mvpcast/internal/domain/stint"
	"github.com/okian/mvpcast/internal/domain/table"
)

// Season holds one season's raw tables. Standings must already be cleaned
// to one row per team with a team_abbrev column.
type Season struct {
	Year      int
	Totals    *table.Table
	PerGame   *table.Table
	PerPoss   *table.Table
	Advanced  *table.Table
	Standings *table.Table
	Voting    *table.Table
	Warnings  []string
}

// Options carries the season boundary and thresholds used by every stage.
type Options struct {
	// LastCompletedSeason is the last season end year with final voting.
	LastCompletedSeason int
	// EligibilityMinGames is the games-played floor for completed seasons.
	EligibilityMinGames int
	// CombinedTeamCodes mark combined-season rows in player tables.
	CombinedTeamCodes []string
}

// DefaultOptions returns the boundary and thresholds of the 2024-25 setup.
func DefaultOptions() Options {
	return Options{
		LastCompletedSeason: 2025,
		EligibilityMinGames: 65,
		CombinedTeamCodes:   append([]string(nil), stint.DefaultCombinedCodes...),
	}
}

// Completed reports whether year has a final outcome.
func (o Options) Completed(year int) bool {
	return year <= o.LastCompletedSeason
}

// Stint returns the collapse options.
func (o Options) Stint() stint.Options {
	return stint.Options{CombinedCodes: o.CombinedTeamCodes}
}

// Report summarises what BuildSeason did to one season.
type Report struct {
	Season             int
	Players            int
	Rows               int
	DroppedIneligible  int
	UnknownPrimaryTeam int
	UnmatchedStandings int
	Warnings           []string
}

// Label columns.
const (
	LabelColumn       = "award_share"
	LegacyLabelColumn = "Voting_Share"
)

var (
	baseColumns = []string{
		"Player", "Player_clean", "Age", "Pos", "Team",
		"G", "GS", "MP", "PTS", "TRB", "AST", "STL", "BLK",
		"ORB", "DRB", "TOV", "PF", "season_end_year", "season",
	}
	perGameStats = []string{"PTS", "TRB", "AST", "STL", "BLK", "ORB", "DRB"}

	advancedColumns = []string{
		"PER", "TS%", "3PAr", "FTr",
		"OWS", "DWS", "WS", "WS/48",
		"OBPM", "DBPM", "BPM", "VORP",
	}
	perPossColumns = []string{
		"FG", "FGA", "FG%", "3P", "3PA", "3P%",
		"2P", "2PA", "2P%", "eFG%", "FT", "FTA", "FT%",
		"ORB", "DRB", "TRB", "AST", "STL", "BLK",
		"TOV", "PF", "PTS", "ORtg", "DRtg",
	}
	officialPerGameColumns = []string{
		"MP", "FG", "FGA", "FG%", "3P", "3PA",
		"3P%", "2P", "2PA", "2P%", "eFG%", "FT", "FTA", "FT%", "PTS",
	}
	votingColumns = []string{"Voting_First", "Voting_Pts Won", "Voting_Pts Max", LegacyLabelColumn}
)

var joinKey = []string{"Player_clean", "season"}
