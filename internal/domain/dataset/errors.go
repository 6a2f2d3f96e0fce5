package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNoSeasons     = errors.New("no seasons requested")
	ErrIncompleteSet = errors.New("season tables incomplete")
)
