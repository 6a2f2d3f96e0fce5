// Package types contains common types used across the application
package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// Float is a float64 that marshals NaN and infinities as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

// UnmarshalJSON implements json.Unmarshaler; null decodes to NaN.
func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Entry represents a leaderboard entry
type Entry struct {
	Rank           int              `json:"rank"`
	Player         string           `json:"player"`
	Team           string           `json:"team"`
	Season         string           `json:"season"`
	SeasonEndYear  int              `json:"season_end_year"`
	PredictedShare Float            `json:"predicted_share"`
	Games          Float            `json:"games"`
	Stats          map[string]Float `json:"stats,omitempty"`
}
