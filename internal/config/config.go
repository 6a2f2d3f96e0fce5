// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults.
//   - Load layers defaults, an optional YAML file and MVPCAST_ env vars.
//   - Stage options are derived from a Config and passed explicitly.
package config

import (
	"github.com/okian/mvpcast/internal/domain/dataset"
	"github.com/okian/mvpcast/internal/domain/leaderboard"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/internal/domain/stint"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: json or text.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DataDir holds one directory of raw CSV tables per season end year.
	DataDir string `koanf:"data_dir"`

	// ModelPath is where the trained bundle is saved and loaded.
	ModelPath string `koanf:"model_path"`

	// ResultsDir receives the per-season leaderboard CSVs. Empty disables writing.
	ResultsDir string `koanf:"results_dir"`

	// Season plan.
	TrainSeasons     []int `koanf:"train_seasons"`
	ValidationSeason int   `koanf:"validation_season"`
	TestSeason       int   `koanf:"test_season"`
	ForecastSeasons  []int `koanf:"forecast_seasons"`

	// LastCompletedSeason is the last season end year with final voting.
	LastCompletedSeason int `koanf:"last_completed_season"`

	// EligibilityMinGames filters completed seasons before training.
	EligibilityMinGames int `koanf:"eligibility_min_games"`

	// LeaderboardMinGames and LeaderboardTopK shape the displayed boards.
	LeaderboardMinGames int `koanf:"leaderboard_min_games"`
	LeaderboardTopK     int `koanf:"leaderboard_top_k"`

	// CombinedTeamCodes mark combined-season rows (TOT, 2TM, ...).
	CombinedTeamCodes []string `koanf:"combined_team_codes"`

	// Models lists the model kinds fitted on every training run.
	Models []string `koanf:"models"`

	// PrimaryModel is the kind saved to ModelPath. Empty saves the model
	// with the lowest validation MAE.
	PrimaryModel string `koanf:"primary_model"`

	// RidgeAlphas is the regularization grid searched by cross-validation.
	RidgeAlphas []float64 `koanf:"ridge_alphas"`

	// Forest grid searched by cross-validation. A max depth of 0 is
	// unlimited.
	ForestTrees       []int   `koanf:"forest_trees"`
	ForestMaxDepths   []int   `koanf:"forest_max_depths"`
	ForestMinLeaves   []int   `koanf:"forest_min_leaves"`
	ForestMaxFeatures float64 `koanf:"forest_max_features"`

	// LoadParallelism bounds concurrent season loads and CV folds.
	LoadParallelism int `koanf:"load_parallelism"`

	// WarmupWorkers forecast ForecastSeasons in the background when serving.
	// Zero disables warm-up; leaderboards are then built on first request.
	WarmupWorkers int `koanf:"warmup_workers"`
}

// New creates a Config populated with defaults.
func New() *Config {
	plan := defaultPlan()
	pipeline := dataset.DefaultOptions()
	board := leaderboard.DefaultOptions()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		DataDir:             "data",
		ModelPath:           "models/mvp_model.json",
		ResultsDir:          "results",
		TrainSeasons:        plan.Train,
		ValidationSeason:    plan.Validation,
		TestSeason:          plan.Test,
		ForecastSeasons:     []int{2026},
		LastCompletedSeason: pipeline.LastCompletedSeason,
		EligibilityMinGames: pipeline.EligibilityMinGames,
		LeaderboardMinGames: board.MinGames,
		LeaderboardTopK:     board.TopK,
		CombinedTeamCodes:   append([]string(nil), stint.DefaultCombinedCodes...),
		Models:              []string{scoring.KindRidge, scoring.KindForest},
		PrimaryModel:        scoring.KindForest,
		RidgeAlphas:         append([]float64(nil), scoring.DefaultAlphas...),
		ForestTrees:         append([]int(nil), scoring.DefaultForestTrees...),
		ForestMaxDepths:     append([]int(nil), scoring.DefaultForestDepths...),
		ForestMinLeaves:     append([]int(nil), scoring.DefaultForestMinLeafs...),
		ForestMaxFeatures:   1,
		LoadParallelism:     4,
		WarmupWorkers:       2,
	}
}

func defaultPlan() split.Plan {
	train := make([]int, 0, 8)
	for y := 2016; y <= 2023; y++ {
		train = append(train, y)
	}
	return split.Plan{Train: train, Validation: 2024, Test: 2025}
}

// Pipeline returns the season boundary and eligibility options.
func (c *Config) Pipeline() dataset.Options {
	return dataset.Options{
		LastCompletedSeason: c.LastCompletedSeason,
		EligibilityMinGames: c.EligibilityMinGames,
		CombinedTeamCodes:   append([]string(nil), c.CombinedTeamCodes...),
	}
}

// Plan returns the train/validation/test seasons.
func (c *Config) Plan() split.Plan {
	return split.Plan{
		Train:      append([]int(nil), c.TrainSeasons...),
		Validation: c.ValidationSeason,
		Test:       c.TestSeason,
	}
}

// ForestGrid returns the forest parameter grid.
func (c *Config) ForestGrid() []scoring.ForestParams {
	return scoring.ForestGrid(c.ForestTrees, c.ForestMaxDepths, c.ForestMinLeaves)
}

// Leaderboard returns the display options.
func (c *Config) Leaderboard() leaderboard.Options {
	return leaderboard.Options{MinGames: c.LeaderboardMinGames, TopK: c.LeaderboardTopK}
}
