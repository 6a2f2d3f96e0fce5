package service

import "errors"

var (
	// ErrNotConfigured is returned when the loader or bundle store is unset.
	ErrNotConfigured = errors.New("service is missing a loader or bundle store")
	// ErrForecastSeason is returned when a training plan names a season
	// without a final outcome.
	ErrForecastSeason = errors.New("season has no final outcome")
	// ErrUnknownPrimary is returned when the primary model kind is not
	// among the trained models.
	ErrUnknownPrimary = errors.New("primary model was not trained")
)
