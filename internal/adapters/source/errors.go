package source

import "errors"

// Sentinel kinds for load errors.
var (
	ErrMissingTable  = errors.New("missing source table")
	ErrMissingColumn = errors.New("missing source column")
	ErrParse         = errors.New("malformed source table")
)
