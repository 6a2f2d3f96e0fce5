package features

import "errors"

// ErrNoLabel is returned when none of the label candidates is a column.
var ErrNoLabel = errors.New("no label column found")
