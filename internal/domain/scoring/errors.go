package scoring

import "errors"

var (
	// ErrNoRows is returned when fitting on an empty matrix.
	ErrNoRows = errors.New("no training rows")
	// ErrDimension is returned when rows, labels and weights disagree in size.
	ErrDimension = errors.New("dimension mismatch")
	// ErrUnknownModel is returned when decoding a model kind with no decoder.
	ErrUnknownModel = errors.New("unknown model kind")
)
