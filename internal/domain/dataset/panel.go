package dataset

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/mvpcast/internal/domain/table"
	"github.com/okian/mvpcast/pkg/metrics"
)

// Loader supplies raw season tables in the order requested.
type Loader interface {
	LoadSeasons(ctx context.Context, years []int) ([]*Season, error)
}

// Panel is a stack of season datasets.
type Panel struct {
	Table    *table.Table
	Reports  []Report
	Warnings []string
}

// BuildPanel builds and concatenates the season datasets for years.
//
// When every requested season is completed and requireTargets is set, rows
// under the games threshold or without a label are removed. If any
// requested season is a forecast season both filters are skipped for the
// whole result, since forecast rows carry no label.
func BuildPanel(ctx context.Context, loader Loader, years []int, requireTargets bool, opts Options) (*Panel, error) {
	if len(years) == 0 {
		return nil, ErrNoSeasons
	}
	start := time.Now()
	seasons, err := loader.LoadSeasons(ctx, years)
	if err != nil {
		return nil, err
	}

	p := &Panel{}
	parts := make([]*table.Table, 0, len(seasons))
	for _, s := range seasons {
		p.Warnings = append(p.Warnings, s.Warnings...)
		t, rep, err := BuildSeason(s, opts)
		if err != nil {
			return nil, err
		}
		metrics.RecordRowsDropped("eligibility", rep.DroppedIneligible)
		p.Reports = append(p.Reports, rep)
		p.Warnings = append(p.Warnings, rep.Warnings...)
		parts = append(parts, t)
	}
	panel := table.Concat(parts...)

	maxYear := years[0]
	for _, y := range years[1:] {
		if y > maxYear {
			maxYear = y
		}
	}
	if requireTargets && opts.Completed(maxYear) {
		before := panel.Len()
		panel = panel.Filter(minGames(panel, opts.EligibilityMinGames))
		metrics.RecordRowsDropped("eligibility", before-panel.Len())

		if label := targetColumn(panel); label != "" {
			before = panel.Len()
			v, _ := panel.ToNumeric(label)
			keep := make([]bool, len(v))
			for i, x := range v {
				keep[i] = !math.IsNaN(x)
			}
			panel = panel.Filter(keep)
			metrics.RecordRowsDropped("missing_target", before-panel.Len())
		}
		if panel.Len() == 0 {
			p.Warnings = append(p.Warnings, fmt.Sprintf("panel for seasons %v is empty after filtering", years))
		}
	}

	p.Table = panel
	metrics.UpdatePanelRows(panel.Len())
	metrics.RecordStageDuration("panel", float64(time.Since(start).Milliseconds()))
	return p, nil
}

func targetColumn(t *table.Table) string {
	for _, c := range []string{LabelColumn, LegacyLabelColumn} {
		if t.Has(c) {
			return c
		}
	}
	return ""
}
