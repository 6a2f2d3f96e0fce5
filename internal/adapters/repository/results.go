package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/mvpcast/internal/domain/table"
	"github.com/okian/mvpcast/internal/domain/types"
)

// ResultsWriter writes one delimited leaderboard file per season.
type ResultsWriter struct {
	dir    string
	prefix string
}

// NewResultsWriter returns a writer rooted at dir.
func NewResultsWriter(dir string, opts ...ResultsOption) *ResultsWriter {
	w := &ResultsWriter{dir: dir, prefix: "mvp_forecast_leaderboard_"}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var unsafePath = strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "_")

// FileName returns the leaderboard file name for a season label.
func (w *ResultsWriter) FileName(season string) string {
	return w.prefix + unsafePath.Replace(season) + ".csv"
}

// Write stores entries for season and returns the file path. Stat columns
// follow the order of statColumns; absent stats are left empty.
func (w *ResultsWriter) Write(ctx context.Context, season string, entries []types.Entry, statColumns []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(w.dir, w.FileName(season))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := slices.Concat([]string{"rank", "Player", "primary_team", "pred_award_share", "G"}, statColumns)
	if err := cw.Write(header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	for _, e := range entries {
		rec := []string{
			strconv.Itoa(e.Rank), e.Player, e.Team,
			table.FormatFloat(float64(e.PredictedShare)), table.FormatFloat(float64(e.Games)),
		}
		for _, c := range statColumns {
			v, ok := e.Stats[c]
			if !ok {
				rec = append(rec, "")
				continue
			}
			rec = append(rec, table.FormatFloat(float64(v)))
		}
		if err := cw.Write(rec); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flush %s: %w", path, err)
	}
	return path, f.Close()
}
