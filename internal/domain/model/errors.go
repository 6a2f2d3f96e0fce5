package model

import "errors"

// ErrInvalidBundle is returned for a bundle whose model and columns disagree.
var ErrInvalidBundle = errors.New("invalid model bundle")
