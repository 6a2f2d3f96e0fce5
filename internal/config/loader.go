package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/okian/mvpcast/internal/domain/scoring"
)

const (
	envPrefix  = "MVPCAST_"
	envConfig  = envPrefix + "CONFIG"
	sliceDelim = ","
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MVPCAST_CONFIG is set
//  3. env (prefix MVPCAST_); list values are comma separated
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// Map env keys like MVPCAST_DATA_DIR -> data_dir (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if key == "config" {
			return "", nil
		}
		if strings.Contains(value, sliceDelim) {
			return key, strings.Split(value, sliceDelim)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	// Unmarshal over the defaults. List fields start empty so a configured
	// list replaces the default instead of merging into it.
	cfg := *base
	cfg.TrainSeasons, cfg.ForecastSeasons = nil, nil
	cfg.CombinedTeamCodes, cfg.RidgeAlphas = nil, nil
	cfg.Models, cfg.ForestTrees, cfg.ForestMaxDepths, cfg.ForestMinLeaves = nil, nil, nil, nil
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if cfg.TrainSeasons == nil {
		cfg.TrainSeasons = base.TrainSeasons
	}
	if cfg.ForecastSeasons == nil {
		cfg.ForecastSeasons = base.ForecastSeasons
	}
	if cfg.CombinedTeamCodes == nil {
		cfg.CombinedTeamCodes = base.CombinedTeamCodes
	}
	if cfg.RidgeAlphas == nil {
		cfg.RidgeAlphas = base.RidgeAlphas
	}
	if cfg.Models == nil {
		cfg.Models = base.Models
	}
	if cfg.ForestTrees == nil {
		cfg.ForestTrees = base.ForestTrees
	}
	if cfg.ForestMaxDepths == nil {
		cfg.ForestMaxDepths = base.ForestMaxDepths
	}
	if cfg.ForestMinLeaves == nil {
		cfg.ForestMinLeaves = base.ForestMinLeaves
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings every command relies on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DataDir) == "":
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.ModelPath) == "":
		return fmt.Errorf("%w: model_path must not be empty", ErrInvalidConfig)
	case len(c.TrainSeasons) == 0:
		return fmt.Errorf("%w: train_seasons must not be empty", ErrInvalidConfig)
	case c.EligibilityMinGames < 0:
		return fmt.Errorf("%w: eligibility_min_games must be >= 0", ErrInvalidConfig)
	case c.LeaderboardMinGames < 0:
		return fmt.Errorf("%w: leaderboard_min_games must be >= 0", ErrInvalidConfig)
	case c.LeaderboardTopK < 1:
		return fmt.Errorf("%w: leaderboard_top_k must be >= 1", ErrInvalidConfig)
	case len(c.Models) == 0:
		return fmt.Errorf("%w: models must not be empty", ErrInvalidConfig)
	case c.PrimaryModel != "" && !slices.Contains(c.Models, c.PrimaryModel):
		return fmt.Errorf("%w: primary_model %q is not in models %v", ErrInvalidConfig, c.PrimaryModel, c.Models)
	case len(c.RidgeAlphas) == 0:
		return fmt.Errorf("%w: ridge_alphas must not be empty", ErrInvalidConfig)
	case len(c.ForestGrid()) == 0:
		return fmt.Errorf("%w: forest grid is empty, check forest_trees, forest_max_depths and forest_min_leaves", ErrInvalidConfig)
	case c.ForestMaxFeatures <= 0 || c.ForestMaxFeatures > 1:
		return fmt.Errorf("%w: forest_max_features must be in (0, 1], got %g", ErrInvalidConfig, c.ForestMaxFeatures)
	case c.LoadParallelism < 1:
		return fmt.Errorf("%w: load_parallelism must be >= 1", ErrInvalidConfig)
	case c.WarmupWorkers < 0:
		return fmt.Errorf("%w: warmup_workers must be >= 0", ErrInvalidConfig)
	}
	for _, m := range c.Models {
		if m != scoring.KindRidge && m != scoring.KindForest {
			return fmt.Errorf("%w: unknown model %q", ErrInvalidConfig, m)
		}
	}
	for _, a := range c.RidgeAlphas {
		if a <= 0 {
			return fmt.Errorf("%w: ridge_alphas must be positive, got %g", ErrInvalidConfig, a)
		}
	}
	if err := c.Plan().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for _, y := range c.Plan().Seasons() {
		if y > c.LastCompletedSeason {
			return fmt.Errorf("%w: season %d is after last_completed_season %d", ErrInvalidConfig, y, c.LastCompletedSeason)
		}
	}
	return nil
}
