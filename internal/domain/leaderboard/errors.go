package leaderboard

import "errors"

var (
	// ErrLength is returned when predictions and rows differ in count.
	ErrLength = errors.New("prediction count does not match rows")
	// ErrMissingColumn is returned when a required panel column is absent.
	ErrMissingColumn = errors.New("missing column")
)
