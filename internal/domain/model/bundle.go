// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/internal/domain/table"
)

// Bundle is a fitted model with the exact feature columns it was trained
// on and where its training data came from.
type Bundle struct {
	RunID               uuid.UUID     `json:"run_id"`
	CreatedAt           time.Time     `json:"created_at"`
	Model               scoring.Model `json:"-"`
	FeatureColumns      []string      `json:"feature_columns"`
	Label               string        `json:"label"`
	TrainSeasons        []int         `json:"train_seasons"`
	ValidationSeason    int           `json:"validation_season"`
	TestSeason          int           `json:"test_season"`
	LastCompletedSeason int           `json:"last_completed_season"`
}

// NewBundle stamps a fitted model with a fresh run id.
func NewBundle(m scoring.Model, columns []string, label string, plan split.Plan, lastCompleted int) *Bundle {
	return &Bundle{
		RunID:               uuid.New(),
		CreatedAt:           time.Now().UTC(),
		Model:               m,
		FeatureColumns:      slices.Clone(columns),
		Label:               label,
		TrainSeasons:        slices.Clone(plan.Train),
		ValidationSeason:    plan.Validation,
		TestSeason:          plan.Test,
		LastCompletedSeason: lastCompleted,
	}
}

type bundleFields Bundle

type bundleJSON struct {
	*bundleFields
	ModelKind string          `json:"model_kind"`
	Model     json.RawMessage `json:"model"`
}

// MarshalJSON stores the model next to its kind.
func (b Bundle) MarshalJSON() ([]byte, error) {
	if b.Model == nil {
		return nil, fmt.Errorf("%w: no model", ErrInvalidBundle)
	}
	raw, err := json.Marshal(b.Model)
	if err != nil {
		return nil, err
	}
	return json.Marshal(bundleJSON{bundleFields: (*bundleFields)(&b), ModelKind: b.Model.Kind(), Model: raw})
}

// UnmarshalJSON restores the model with the decoder of its kind.
func (b *Bundle) UnmarshalJSON(data []byte) error {
	aux := bundleJSON{bundleFields: (*bundleFields)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	m, err := scoring.Decode(aux.ModelKind, aux.Model)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	b.Model = m
	return nil
}

// Plan returns the split the bundle was trained with.
func (b *Bundle) Plan() split.Plan {
	return split.Plan{Train: slices.Clone(b.TrainSeasons), Validation: b.ValidationSeason, Test: b.TestSeason}
}

// Validate checks that the model and its column list agree.
func (b *Bundle) Validate() error {
	if b.Model == nil {
		return fmt.Errorf("%w: no model", ErrInvalidBundle)
	}
	if b.Model.Width() != len(b.FeatureColumns) {
		return fmt.Errorf("%w: %s model reads %d columns, %d feature columns stored",
			ErrInvalidBundle, b.Model.Kind(), b.Model.Width(), len(b.FeatureColumns))
	}
	return nil
}

// Alignment is the result of matching stored feature columns to a panel.
type Alignment struct {
	// Present are the stored columns found in the panel, in stored order.
	Present []string
	// Missing are the stored columns the panel lacks.
	Missing []string
	// Predictor reads only the present columns.
	Predictor scoring.Model
}

// Align intersects the stored columns with those of t in stored order. It
// never re-infers columns and never modifies the bundle.
func (b *Bundle) Align(t *table.Table) (Alignment, error) {
	if err := b.Validate(); err != nil {
		return Alignment{}, err
	}
	var a Alignment
	keep := make([]int, 0, len(b.FeatureColumns))
	for j, c := range b.FeatureColumns {
		if _, ok := t.ToNumeric(c); ok {
			a.Present = append(a.Present, c)
			keep = append(keep, j)
			continue
		}
		a.Missing = append(a.Missing, c)
	}
	a.Predictor = b.Model.Subset(keep)
	return a, nil
}
