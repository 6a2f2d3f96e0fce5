// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/mvpcast/internal/adapters/repository"
	"github.com/okian/mvpcast/internal/adapters/source"
)

const (
	leaderboardPrefix = "/api/leaderboard/"

	// Accepted season end years.
	minSeasonEndYear = 1947
	maxSeasonEndYear = 9999
)

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps Dependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps Dependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /api/leaderboard/{year} requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	year, err := parseYear(strings.TrimPrefix(r.URL.Path, leaderboardPrefix))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.Leaderboard(r.Context(), year)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, entries)
	case errors.Is(err, source.ErrMissingTable):
		writeError(w, http.StatusNotFound, "season_not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusInternalServerError, "model_not_trained", WrapKind(op, ErrForecast, err))
	default:
		writeError(w, http.StatusInternalServerError, "forecast_failed", WrapKind(op, ErrForecast, err))
	}
}

func parseYear(s string) (int, error) {
	if s == "" || strings.Contains(s, "/") {
		return 0, fmt.Errorf("expected /api/leaderboard/{year}")
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("year %q is not a number", s)
	}
	if year < minSeasonEndYear || year > maxSeasonEndYear {
		return 0, fmt.Errorf("year %d out of range [%d, %d]", year, minSeasonEndYear, maxSeasonEndYear)
	}
	return year, nil
}
