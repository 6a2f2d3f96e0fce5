package service

import (
	"slices"

	"github.com/okian/mvpcast/internal/adapters/repository"
	"github.com/okian/mvpcast/internal/domain/dataset"
	"github.com/okian/mvpcast/internal/domain/leaderboard"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLoader sets the raw season source.
func WithLoader(l dataset.Loader) Option {
	return func(s *Service) {
		if l != nil {
			s.loader = l
		}
	}
}

// WithBundleStore sets where the model bundle is saved and loaded.
func WithBundleStore(b repository.BundleStore) Option {
	return func(s *Service) {
		if b != nil {
			s.bundles = b
		}
	}
}

// WithLeaderboardStore replaces the in-memory leaderboard cache.
func WithLeaderboardStore(b repository.LeaderboardStore) Option {
	return func(s *Service) {
		if b != nil {
			s.boards = b
		}
	}
}

// WithResultsWriter makes Forecast write each leaderboard to disk.
func WithResultsWriter(w *repository.ResultsWriter) Option {
	return func(s *Service) {
		s.results = w
	}
}

// WithTrainer trains a single model family.
func WithTrainer(t scoring.Trainer) Option {
	return WithTrainers(t)
}

// WithTrainers fits every trainer on each run, scores each on the
// validation and test seasons and saves the chosen one.
func WithTrainers(ts ...scoring.Trainer) Option {
	ts = slices.DeleteFunc(slices.Clone(ts), func(t scoring.Trainer) bool { return t == nil })
	return func(s *Service) {
		if len(ts) > 0 {
			s.trainers = ts
		}
	}
}

// WithPrimaryModel names the model kind to save. Empty saves the model
// with the lowest validation MAE.
func WithPrimaryModel(kind string) Option {
	return func(s *Service) {
		s.primary = kind
	}
}

// WithPipeline sets the season boundary and eligibility options.
func WithPipeline(o dataset.Options) Option {
	return func(s *Service) {
		s.pipeline = o
	}
}

// WithPlan sets the train/validation/test seasons.
func WithPlan(p split.Plan) Option {
	return func(s *Service) {
		s.plan = p
	}
}

// WithLeaderboardOptions sets the display floor, top-K and stat columns.
func WithLeaderboardOptions(o leaderboard.Options) Option {
	return func(s *Service) {
		s.board = o
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}
