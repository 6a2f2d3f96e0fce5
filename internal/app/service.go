// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/mvpcast/internal/adapters/repository"
	"github.com/okian/mvpcast/internal/adapters/source"
	"github.com/okian/mvpcast/internal/domain/dataset"
	"github.com/okian/mvpcast/internal/domain/features"
	"github.com/okian/mvpcast/internal/domain/leaderboard"
	"github.com/okian/mvpcast/internal/domain/model"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/internal/domain/split"
	"github.com/okian/mvpcast/internal/domain/types"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/okian/mvpcast/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Service runs training and forecasting over the season pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	loader   dataset.Loader
	bundles  repository.BundleStore
	boards   repository.LeaderboardStore
	results  *repository.ResultsWriter
	trainers []scoring.Trainer
	primary  string

	// Configuration
	pipeline dataset.Options
	plan     split.Plan
	board    leaderboard.Options

	// State
	lastTrain *TrainReport
	forecasts int
	inflight  singleflight.Group

	// Logging
	logger logger.Logger
}

// TrainReport summarises a training run. CVMAE, ValidationMAE and Test
// describe the saved model; Models holds every candidate.
type TrainReport struct {
	RunID         uuid.UUID
	Model         string
	CVMAE         float64
	Features      []string
	Label         string
	TrainRows     int
	ValidationMAE float64
	Test          leaderboard.Report
	Models        []ModelReport
	BundlePath    string
	Warnings      []string
	Took          time.Duration
}

// ModelReport scores one fitted candidate on the held-out seasons.
type ModelReport struct {
	Kind          string
	CVMAE         float64
	CVFolds       int
	ValidationMAE float64
	Test          leaderboard.Report
}

// ForecastResult is the leaderboard of one forecast season.
type ForecastResult struct {
	SeasonEndYear int
	Season        string
	RunID         uuid.UUID
	Entries       []types.Entry
	// Missing lists model features absent from the season's data.
	Missing  []string
	Warnings []string
	// Path is the written leaderboard file, if a results writer is set.
	Path string
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		boards:   repository.NewMemoryLeaderboards(),
		trainers: []scoring.Trainer{scoring.NewRidge()},
		pipeline: dataset.DefaultOptions(),
		plan:     DefaultPlan(),
		board:    leaderboard.DefaultOptions(),
		logger:   logger.Nop(),
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DefaultPlan trains on 2016-2023, validates on 2024 and tests on 2025.
func DefaultPlan() split.Plan {
	train := make([]int, 0, 8)
	for y := 2016; y <= 2023; y++ {
		train = append(train, y)
	}
	return split.Plan{Train: train, Validation: 2024, Test: 2025}
}

// Train builds the completed-season panel, fits the model and saves the
// bundle.
func (s *Service) Train(ctx context.Context) (*TrainReport, error) {
	if s.loader == nil || s.bundles == nil {
		return nil, ErrNotConfigured
	}
	start := time.Now()
	if err := s.plan.Validate(); err != nil {
		return nil, err
	}
	for _, y := range s.plan.Seasons() {
		if !s.pipeline.Completed(y) {
			return nil, fmt.Errorf("%w: %d", ErrForecastSeason, y)
		}
	}

	s.logger.Info(ctx, "training started",
		logger.Ints("train", s.plan.Train),
		logger.Int("validation", s.plan.Validation),
		logger.Int("test", s.plan.Test),
	)
	panel, err := dataset.BuildPanel(ctx, s.loader, s.plan.Seasons(), true, s.pipeline)
	if err != nil {
		metrics.RecordErrorByComponent("service", "panel")
		return nil, fmt.Errorf("build panel: %w", err)
	}
	rep := &TrainReport{Warnings: append([]string(nil), panel.Warnings...)}
	s.warn(ctx, panel.Warnings)

	engineered := features.Engineer(panel.Table)
	sets, err := split.Split(engineered, s.plan)
	if err != nil {
		return nil, err
	}

	train, err := features.Select(sets.Train, features.CanonicalLabel, features.DefaultPolicy())
	if err != nil {
		return nil, err
	}
	groups, err := split.Groups(sets.Train.Take(train.Rows))
	if err != nil {
		return nil, err
	}
	fixed := features.Fixed(train.Columns)
	val, err := features.Select(sets.Validation, train.Label, fixed)
	if err != nil {
		return nil, err
	}
	test, err := features.Select(sets.Test, train.Label, fixed)
	if err != nil {
		return nil, err
	}
	testRows := sets.Test.Take(test.Rows)

	fitted := make([]scoring.Model, 0, len(s.trainers))
	for _, tr := range s.trainers {
		m, err := tr.Fit(ctx, train.X, train.Y, groups)
		if err != nil {
			metrics.RecordErrorByComponent("service", "fit")
			return nil, fmt.Errorf("fit model: %w", err)
		}
		mr := ModelReport{Kind: m.Kind()}
		mr.CVMAE, mr.CVFolds = m.CV()

		valPred, err := m.Predict(val.X)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mr.Kind, err)
		}
		mr.ValidationMAE = scoring.MAE(val.Y, valPred)
		testPred, err := m.Predict(test.X)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mr.Kind, err)
		}
		if mr.Test, err = leaderboard.Evaluate(testRows, test.Y, testPred); err != nil {
			return nil, err
		}
		metrics.UpdateModel(mr.Kind, mr.CVMAE, mr.ValidationMAE)
		s.logger.Info(ctx, "model evaluated",
			logger.String("model", mr.Kind),
			logger.Float64("cv_mae", mr.CVMAE),
			logger.Float64("validation_mae", mr.ValidationMAE),
			logger.Float64("test_mae", mr.Test.MAE),
			logger.Float64("test_top1", mr.Test.Top1Rate),
			logger.Float64("test_top3", mr.Test.Top3Rate),
		)
		fitted = append(fitted, m)
		rep.Models = append(rep.Models, mr)
	}

	chosen, err := s.choose(rep.Models)
	if err != nil {
		return nil, err
	}
	best := rep.Models[chosen]
	rep.Model, rep.CVMAE, rep.ValidationMAE, rep.Test = best.Kind, best.CVMAE, best.ValidationMAE, best.Test

	bundle := model.NewBundle(fitted[chosen], train.Columns, train.Label, s.plan, s.pipeline.LastCompletedSeason)
	if err := s.bundles.Save(ctx, bundle); err != nil {
		metrics.RecordErrorByComponent("service", "save_bundle")
		return nil, fmt.Errorf("save bundle: %w", err)
	}
	if fs, ok := s.bundles.(*repository.FileBundleStore); ok {
		rep.BundlePath = fs.Path()
	}

	rep.RunID = bundle.RunID
	rep.Features = train.Columns
	rep.Label = train.Label
	rep.TrainRows = train.Len()
	rep.Took = time.Since(start)
	metrics.RecordStageDuration("train", float64(rep.Took.Milliseconds()))

	s.mu.Lock()
	s.lastTrain = rep
	s.mu.Unlock()

	s.logger.Info(ctx, "training finished",
		logger.String("run_id", rep.RunID.String()),
		logger.String("model", rep.Model),
		logger.Float64("cv_mae", rep.CVMAE),
		logger.Float64("validation_mae", rep.ValidationMAE),
		logger.Float64("test_mae", rep.Test.MAE),
		logger.Float64("test_top1", rep.Test.Top1Rate),
		logger.Int("features", len(rep.Features)),
		logger.Duration("took", rep.Took),
	)
	return rep, nil
}

// Forecast scores one season with the saved bundle, caches the leaderboard
// and writes it when a results writer is configured.
func (s *Service) Forecast(ctx context.Context, year int) (*ForecastResult, error) {
	if s.loader == nil || s.bundles == nil {
		return nil, ErrNotConfigured
	}
	bundle, err := s.bundles.Load(ctx)
	if err != nil {
		metrics.RecordForecast("error")
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	return s.forecastWith(ctx, bundle, year)
}

func (s *Service) forecastWith(ctx context.Context, bundle *model.Bundle, year int) (*ForecastResult, error) {
	res, err := s.forecast(ctx, bundle, year)
	if err != nil {
		metrics.RecordForecast("error")
		metrics.RecordErrorByComponent("service", "forecast")
		return nil, err
	}
	metrics.RecordForecast("success")
	return res, nil
}

func (s *Service) forecast(ctx context.Context, bundle *model.Bundle, year int) (*ForecastResult, error) {
	panel, err := dataset.BuildPanel(ctx, s.loader, []int{year}, false, s.pipeline)
	if err != nil {
		return nil, fmt.Errorf("build panel: %w", err)
	}
	res := &ForecastResult{
		SeasonEndYear: year,
		RunID:         bundle.RunID,
		Warnings:      append([]string(nil), panel.Warnings...),
	}

	engineered := features.Engineer(panel.Table)
	aligned, err := bundle.Align(engineered)
	if err != nil {
		return nil, err
	}
	if res.Missing = aligned.Missing; len(res.Missing) > 0 {
		metrics.RecordFeatureColumnsMissing(len(res.Missing))
		res.Warnings = append(res.Warnings, fmt.Sprintf("season %d: %d model features missing, scoring with %d: %v",
			year, len(res.Missing), len(aligned.Present), res.Missing))
	}
	matrix := features.SelectUnlabeled(engineered, aligned.Present)
	res.Warnings = append(res.Warnings, matrix.Warnings...)

	preds, err := aligned.Predictor.Predict(matrix.X)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	boards, warnings, err := leaderboard.Build(engineered, preds, s.board)
	if err != nil {
		return nil, err
	}
	res.Warnings = append(res.Warnings, warnings...)
	s.warn(ctx, res.Warnings)

	res.Season = source.SeasonString(year)
	res.Entries = []types.Entry{}
	for _, b := range boards {
		if b.SeasonEndYear == year {
			res.Season = b.Season
			res.Entries = toEntries(b)
		}
	}
	if err := s.boards.Put(ctx, bundle.RunID, year, res.Entries); err != nil {
		return nil, err
	}
	if s.results != nil {
		cols := s.board.Columns
		if cols == nil {
			cols = leaderboard.DefaultColumns
		}
		if res.Path, err = s.results.Write(ctx, res.Season, res.Entries, cols); err != nil {
			return nil, fmt.Errorf("write leaderboard: %w", err)
		}
	}

	s.mu.Lock()
	s.forecasts++
	s.mu.Unlock()
	s.logger.Info(ctx, "forecast built",
		logger.Int("season", year),
		logger.Int("entries", len(res.Entries)),
		logger.Int("missing_features", len(res.Missing)),
		logger.String("model", bundle.Model.Kind()),
		logger.String("run_id", res.RunID.String()),
	)
	return res, nil
}

// Leaderboard returns the cached leaderboard for year, forecasting it on a
// cache miss. Boards are cached per saved bundle, so a retrained model is
// picked up without a restart. Concurrent misses for the same season share
// one forecast that outlives any single caller's cancellation.
func (s *Service) Leaderboard(ctx context.Context, year int) ([]types.Entry, error) {
	if s.loader == nil || s.bundles == nil {
		return nil, ErrNotConfigured
	}
	bundle, err := s.bundles.Load(ctx)
	if err != nil {
		metrics.RecordForecast("error")
		return nil, fmt.Errorf("load bundle: %w", err)
	}
	entries, err := s.boards.TopN(ctx, bundle.RunID, year, 0)
	if err == nil {
		metrics.RecordForecast("cached")
		return entries, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	key := bundle.RunID.String() + "/" + strconv.Itoa(year)
	shared := context.WithoutCancel(ctx)
	ch := s.inflight.DoChan(key, func() (any, error) {
		res, err := s.forecastWith(shared, bundle, year)
		if err != nil {
			return nil, err
		}
		return res.Entries, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return slices.Clone(r.Val.([]types.Entry)), nil
	}
}

// choose returns the index of the configured primary model, or of the
// lowest validation MAE when none is configured. Ties keep the earlier
// trainer.
func (s *Service) choose(models []ModelReport) (int, error) {
	if s.primary != "" {
		for i, m := range models {
			if m.Kind == s.primary {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownPrimary, s.primary)
	}
	best := 0
	for i, m := range models {
		if m.ValidationMAE < models[best].ValidationMAE || math.IsNaN(models[best].ValidationMAE) {
			best = i
		}
	}
	return best, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"cached_seasons":        s.boards.Seasons(ctx),
		"cached_run_id":         s.boards.Run(ctx).String(),
		"forecasts":             s.forecasts,
		"last_completed_season": s.pipeline.LastCompletedSeason,
		"eligibility_min_games": s.pipeline.EligibilityMinGames,
		"leaderboard_min_games": s.board.MinGames,
		"leaderboard_top_k":     s.board.TopK,
	}
	if s.lastTrain != nil {
		stats["last_run_id"] = s.lastTrain.RunID.String()
		stats["last_train_rows"] = s.lastTrain.TrainRows
		stats["last_model"] = s.lastTrain.Model
	}
	return stats
}

func (s *Service) warn(ctx context.Context, warnings []string) {
	for _, w := range warnings {
		s.logger.Warn(ctx, w)
	}
}

func toEntries(b leaderboard.Board) []types.Entry {
	out := make([]types.Entry, len(b.Rows))
	for i, r := range b.Rows {
		e := types.Entry{
			Rank:           r.Rank,
			Player:         r.Player,
			Team:           r.Team,
			Season:         r.Season,
			SeasonEndYear:  r.SeasonEndYear,
			PredictedShare: types.Float(r.Predicted),
			Games:          types.Float(r.Games),
		}
		if len(r.Stats) > 0 {
			e.Stats = make(map[string]types.Float, len(r.Stats))
			for k, v := range r.Stats {
				e.Stats[k] = types.Float(v)
			}
		}
		out[i] = e
	}
	return out
}
