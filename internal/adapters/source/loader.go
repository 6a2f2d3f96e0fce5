// Package source loads the raw per-season tables from a data directory laid
// out as <data_dir>/<season_end_year>/<table>.csv.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/okian/mvpcast/internal/domain/dataset"
	"github.com/okian/mvpcast/internal/domain/table"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/okian/mvpcast/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Table file names, without extension.
const (
	Totals    = "players_totals"
	PerGame   = "players_per_game"
	PerPoss   = "players_per_poss"
	Advanced  = "players_advanced"
	Standings = "standings"
	Voting    = "mvp_voting"
)

// VotingColumns is the fixed shape of an award-voting table.
var VotingColumns = []string{
	"Rank", "Player", "Age", "Tm",
	"Voting_First", "Voting_Pts Won", "Voting_Pts Max", "Voting_Share",
	"G", "Per Game_MP", "Per Game_PTS", "Per Game_TRB", "Per Game_AST",
	"Per Game_STL", "Per Game_BLK",
	"Shooting_FG%", "Shooting_3P%", "Shooting_FT%",
	"Advanced_WS", "Advanced_WS/48",
	"season_end_year", "season",
}

var requiredColumns = map[string][]string{
	Totals:    {"Player", "Team", "G", "MP"},
	PerGame:   {"Player"},
	PerPoss:   {"Player"},
	Advanced:  {"Player"},
	Standings: {"Team", "W"},
}

// SeasonTables holds one season's raw tables after column normalisation.
// Standings is already cleaned.
type SeasonTables = dataset.Season

// Loader reads season directories.
type Loader struct {
	dir         string
	parallelism int
	log         logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithParallelism bounds how many seasons LoadSeasons reads at once.
func WithParallelism(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.parallelism = n
		}
	}
}

// WithLogger sets the logger used for recoverable conditions.
func WithLogger(log logger.Logger) Option {
	return func(l *Loader) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoader returns a Loader rooted at dir.
func NewLoader(dir string, opts ...Option) *Loader {
	l := &Loader{dir: dir, parallelism: 4, log: logger.Nop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dir returns the data directory.
func (l *Loader) Dir() string { return l.dir }

// LoadSeason reads all tables for one season. A missing required table or
// column fails the season; a missing voting table is replaced by an empty
// one of the fixed shape.
func (l *Loader) LoadSeason(ctx context.Context, year int) (*SeasonTables, error) {
	start := time.Now()
	st := &SeasonTables{Year: year}
	targets := []struct {
		name string
		dst  **table.Table
	}{
		{Totals, &st.Totals},
		{PerGame, &st.PerGame},
		{PerPoss, &st.PerPoss},
		{Advanced, &st.Advanced},
		{Standings, &st.Standings},
	}
	for _, tg := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t, err := l.readTable(year, tg.name)
		if err != nil {
			metrics.RecordErrorByComponent("source", "load")
			return nil, err
		}
		*tg.dst = t
	}

	standings, err := CleanStandings(st.Standings)
	if err != nil {
		return nil, fmt.Errorf("season %d: %w", year, err)
	}
	st.Standings = standings

	voting, err := l.readTable(year, Voting)
	switch {
	case err == nil:
		st.Voting = voting
	case errors.Is(err, ErrMissingTable):
		msg := fmt.Sprintf("season %d: %s.csv not found; using empty voting table", year, Voting)
		l.log.Warn(ctx, "optional table missing",
			logger.String("table", Voting),
			logger.Int("season", year),
		)
		metrics.RecordOptionalMissing(Voting)
		st.Warnings = append(st.Warnings, msg)
		st.Voting = EmptyVoting()
	default:
		return nil, err
	}

	metrics.RecordStageDuration("load", float64(time.Since(start).Milliseconds()))
	l.log.Debug(ctx, "season loaded",
		logger.Int("season", year),
		logger.Int("totals_rows", st.Totals.Len()),
		logger.Duration("took", time.Since(start)),
	)
	return st, nil
}

// LoadSeasons loads several seasons concurrently and returns them in the
// order requested.
func (l *Loader) LoadSeasons(ctx context.Context, years []int) ([]*SeasonTables, error) {
	out := make([]*SeasonTables, len(years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, year := range years {
		g.Go(func() error {
			st, err := l.LoadSeason(gctx, year)
			if err != nil {
				return err
			}
			out[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) readTable(year int, name string) (*table.Table, error) {
	path := filepath.Join(l.dir, fmt.Sprint(year), name+".csv")
	t, err := ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingTable, path)
		}
		return nil, err
	}
	t = normalize(t, year)
	for _, c := range requiredColumns[name] {
		if !t.Has(c) {
			return nil, fmt.Errorf("%w: %s in %s", ErrMissingColumn, c, path)
		}
	}
	if name == Voting && !t.Has("Player") {
		return nil, fmt.Errorf("%w: Player in %s", ErrMissingColumn, path)
	}
	metrics.RecordSourceRows(name, t.Len())
	return t, nil
}

// normalize renames Tm to Team and attaches season identifiers when absent.
func normalize(t *table.Table, year int) *table.Table {
	if t.Has("Tm") && !t.Has("Team") {
		t = t.Rename(map[string]string{"Tm": "Team"})
	}
	if !t.Has("season_end_year") {
		v := make([]float64, t.Len())
		for i := range v {
			v[i] = float64(year)
		}
		t.SetNum("season_end_year", v)
	}
	if !t.Has("season") {
		v := make([]string, t.Len())
		for i := range v {
			v[i] = SeasonString(year)
		}
		t.SetStr("season", v)
	}
	return t
}

// EmptyVoting returns a zero-row voting table with the fixed column set.
func EmptyVoting() *table.Table {
	t := table.New(0)
	for _, c := range VotingColumns {
		switch c {
		case "Player", "Tm", "season":
			t.SetStr(c, []string{})
		default:
			t.SetNum(c, []float64{})
		}
	}
	return t
}
