package stint

import "errors"

// ErrMissingKey is returned when a table lacks the Player or season column.
var ErrMissingKey = errors.New("table has no player-season key")
