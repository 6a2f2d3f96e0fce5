package split

import "errors"

var (
	// ErrMissingSeasonColumn is returned when the panel has no season column.
	ErrMissingSeasonColumn = errors.New("season_end_year column missing from panel")
	// ErrOverlap is returned when a season is assigned to two sets.
	ErrOverlap = errors.New("split seasons overlap")
)
