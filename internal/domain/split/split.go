// Package split partitions a panel into train, validation and test sets by
// season.
package split

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/mvpcast/internal/domain/table"
)

// SeasonColumn identifies a row's season.
const SeasonColumn = "season_end_year"

// Plan names the seasons of each set.
type Plan struct {
	Train      []int
	Validation int
	Test       int
}

// Seasons returns every season in the plan, train seasons first.
func (p Plan) Seasons() []int {
	return append(append([]int{}, p.Train...), p.Validation, p.Test)
}

// Validate reports seasons assigned to more than one set.
func (p Plan) Validate() error {
	if p.Validation == p.Test {
		return fmt.Errorf("%w: validation and test are both %d", ErrOverlap, p.Test)
	}
	for _, y := range p.Train {
		if y == p.Validation || y == p.Test {
			return fmt.Errorf("%w: %d is a train season", ErrOverlap, y)
		}
	}
	return nil
}

// Sets are the three partitions. Rows keep their panel order.
type Sets struct {
	Train      *table.Table
	Validation *table.Table
	Test       *table.Table
}

// Split partitions t by season. Rows from seasons outside the plan are in
// no set.
func Split(t *table.Table, p Plan) (Sets, error) {
	if err := p.Validate(); err != nil {
		return Sets{}, err
	}
	years, ok := t.ToNumeric(SeasonColumn)
	if !ok {
		return Sets{}, ErrMissingSeasonColumn
	}
	train := make([]bool, len(years))
	val := make([]bool, len(years))
	test := make([]bool, len(years))
	for i, y := range years {
		if math.IsNaN(y) {
			continue
		}
		year := int(y)
		switch {
		case year == p.Validation:
			val[i] = true
		case year == p.Test:
			test[i] = true
		case slices.Contains(p.Train, year):
			train[i] = true
		}
	}
	return Sets{
		Train:      t.Filter(train),
		Validation: t.Filter(val),
		Test:       t.Filter(test),
	}, nil
}

// Groups returns the season of each row, for grouped cross-validation.
func Groups(t *table.Table) ([]int, error) {
	years, ok := t.ToNumeric(SeasonColumn)
	if !ok {
		return nil, ErrMissingSeasonColumn
	}
	out := make([]int, len(years))
	for i, y := range years {
		out[i] = int(y)
	}
	return out, nil
}
