package main

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/okian/mvpcast/internal/adapters/http/api"
	"github.com/okian/mvpcast/internal/adapters/http/swagger"
	"github.com/okian/mvpcast/internal/adapters/mq/queue"
	"github.com/okian/mvpcast/internal/adapters/mq/worker"
	"github.com/okian/mvpcast/internal/config"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/okian/mvpcast/pkg/metrics"
	"github.com/spf13/cobra"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 60 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve forecast leaderboards over HTTP",
		Long: `Serve GET /api/leaderboard/{year} from the saved model bundle.
Leaderboards are forecast on first request and cached in memory.

Examples:
  mvpcast serve
  MVPCAST_ADDR=:8080 mvpcast serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), env.cfg, env.log)
		},
	}
}

// newMux registers the API and documentation routes.
func newMux(ctx context.Context, deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps, stats).Register(ctx, mux)
	return mux
}

func runServe(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	svc := newService(cfg, log, false)

	go startSystemMetricsUpdater(ctx)

	if pool := startWarmup(ctx, cfg, svc, log); pool != nil {
		defer func() { _ = pool.Shutdown(context.Background()) }()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("model_path", cfg.ModelPath),
			logger.String("data_dir", cfg.DataDir),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startWarmup queues the configured forecast seasons for background
// forecasting. It returns nil when warm-up is disabled.
func startWarmup(ctx context.Context, cfg *config.Config, f worker.Forecaster, log logger.Logger) *worker.Pool {
	if cfg.WarmupWorkers == 0 || len(cfg.ForecastSeasons) == 0 {
		return nil
	}
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(cfg.ForecastSeasons)))
	pool := worker.NewPool(cfg.WarmupWorkers, q, f, worker.WithLogger(log.Named("warmup")))
	pool.Start(ctx)
	for _, y := range cfg.ForecastSeasons {
		if !q.Enqueue(ctx, queue.Job{SeasonEndYear: y}) {
			log.Warn(ctx, "warm-up job rejected", logger.Int("season", y))
		}
	}
	// One-shot: workers exit once the queued seasons are drained.
	_ = q.Close()
	return pool
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
