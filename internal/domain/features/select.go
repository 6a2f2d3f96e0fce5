package features

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/mvpcast/internal/domain/table"
	"github.com/okian/mvpcast/pkg/metrics"
)

// Label column candidates after the caller's choice.
const (
	CanonicalLabel = "award_share"
	LegacyLabel    = "Voting_Share"
)

// DefaultDeny lists columns that are never features: identifiers, labels
// and raw voting columns.
var DefaultDeny = []string{
	"Player", "Player_clean", "Team", "primary_team", "Pos",
	"season", "season_end_year", "Rank",
	CanonicalLabel, LegacyLabel,
	"Voting_Pts Won", "Voting_Pts Max", "Voting_First",
}

// Policy decides the feature columns. A non-nil Allow is used as is, in
// order; otherwise every numeric column not in Deny is a feature.
type Policy struct {
	Allow []string
	Deny  []string
}

// DefaultPolicy infers features with DefaultDeny.
func DefaultPolicy() Policy {
	return Policy{Deny: DefaultDeny}
}

// Fixed returns a policy that uses exactly columns.
func Fixed(columns []string) Policy {
	return Policy{Allow: append([]string{}, columns...)}
}

// Matrix is a dense, zero-filled feature matrix.
//
// Missing feature values are filled with 0 rather than a mean or median.
// This biases sparse columns toward zero and is kept so that trained models
// stay comparable across runs.
type Matrix struct {
	Columns []string
	X       [][]float64
	// Y is nil for unlabeled matrices.
	Y     []float64
	Label string
	// Rows holds the source panel row of each matrix row.
	Rows []int
	// Missing lists requested columns absent from the panel.
	Missing  []string
	Warnings []string
}

// Len returns the number of rows.
func (m *Matrix) Len() int { return len(m.X) }

// Select builds a labeled matrix for training and evaluation. The label is
// resolved as label, then award_share, then Voting_Share. Rows with a
// missing label are dropped.
func Select(t *table.Table, label string, p Policy) (*Matrix, error) {
	candidates := labelCandidates(label)
	var y []float64
	actual := ""
	for _, c := range candidates {
		if v, ok := t.ToNumeric(c); ok {
			y, actual = v, c
			break
		}
	}
	if actual == "" {
		return nil, fmt.Errorf("%w: expected one of %v, columns are %v", ErrNoLabel, candidates, t.Columns())
	}

	rows := make([]int, 0, len(y))
	labels := make([]float64, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			rows = append(rows, i)
			labels = append(labels, v)
		}
	}
	present, missing := p.columns(t)
	m := build(t, present, missing, rows)
	m.Y = labels
	m.Label = actual
	return m, nil
}

// SelectUnlabeled builds a matrix over every row of t using exactly columns.
// It is the forecasting path and never drops rows.
func SelectUnlabeled(t *table.Table, columns []string) *Matrix {
	rows := make([]int, t.Len())
	for i := range rows {
		rows[i] = i
	}
	present, missing := Fixed(columns).columns(t)
	return build(t, present, missing, rows)
}

// Columns returns the feature columns p yields for t, in order.
func (p Policy) Columns(t *table.Table) []string {
	cols, _ := p.columns(t)
	return cols
}

func (p Policy) columns(t *table.Table) (present, missing []string) {
	if p.Allow != nil {
		for _, c := range p.Allow {
			if _, ok := t.ToNumeric(c); ok {
				present = append(present, c)
			} else {
				missing = append(missing, c)
			}
		}
		return present, missing
	}
	for _, c := range t.NumericColumns() {
		if !slices.Contains(p.Deny, c) {
			present = append(present, c)
		}
	}
	return present, nil
}

func build(t *table.Table, present, missing []string, rows []int) *Matrix {
	m := &Matrix{Columns: present, Rows: rows, Missing: missing}
	if present == nil {
		m.Columns = []string{}
	}
	if len(missing) > 0 {
		metrics.RecordFeatureColumnsMissing(len(missing))
		m.Warnings = append(m.Warnings,
			fmt.Sprintf("%d feature columns missing from data, using %d: %v", len(missing), len(present), missing))
	}
	cols := make([][]float64, len(present))
	for j, c := range present {
		cols[j], _ = t.ToNumeric(c)
	}
	m.X = make([][]float64, len(rows))
	for r, i := range rows {
		row := make([]float64, len(present))
		for j := range present {
			if v := cols[j][i]; !math.IsNaN(v) {
				row[j] = v
			}
		}
		m.X[r] = row
	}
	return m
}

func labelCandidates(label string) []string {
	out := make([]string, 0, 3)
	for _, c := range []string{label, CanonicalLabel, LegacyLabel} {
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}
