package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/mvpcast/internal/adapters/repository"
	"github.com/okian/mvpcast/internal/adapters/source"
	app "github.com/okian/mvpcast/internal/app"
	"github.com/okian/mvpcast/internal/config"
	"github.com/okian/mvpcast/internal/domain/scoring"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/spf13/cobra"
)

// runtimeEnv is what every subcommand needs once configuration is loaded.
type runtimeEnv struct {
	cfg *config.Config
	log logger.Logger
}

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &runtimeEnv{}
	var (
		configPath string
		logLevel   string
		dataDir    string
	)

	root := &cobra.Command{
		Use:   "mvpcast",
		Short: "MVP award-share forecaster",
		Long: `mvpcast trains award-share models on completed seasons of player and
team tables, then forecasts leaderboards for seasons without votes.

Configuration layers defaults, the YAML file in MVPCAST_CONFIG (or --config)
and MVPCAST_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				if err := os.Setenv("MVPCAST_CONFIG", configPath); err != nil {
					return err
				}
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(cfg.LogFormat)); err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			env.log = logger.Get()
			// Apply configured log level (fallback to info on invalid input)
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				env.log.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			env.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (overrides MVPCAST_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory of per-season raw tables")

	root.AddCommand(newServeCmd(env), newTrainCmd(env), newForecastCmd(env))
	return root
}

// newService wires the pipeline components described by cfg.
func newService(cfg *config.Config, log logger.Logger, writeResults bool) *app.Service {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithLoader(source.NewLoader(cfg.DataDir,
			source.WithParallelism(cfg.LoadParallelism),
			source.WithLogger(log.Named("source")),
		)),
		app.WithBundleStore(repository.NewFileBundleStore(cfg.ModelPath,
			repository.WithBundleLogger(log.Named("bundle")),
		)),
		app.WithTrainers(trainers(cfg, log)...),
		app.WithPrimaryModel(cfg.PrimaryModel),
		app.WithPipeline(cfg.Pipeline()),
		app.WithPlan(cfg.Plan()),
		app.WithLeaderboardOptions(cfg.Leaderboard()),
	}
	if writeResults && cfg.ResultsDir != "" {
		opts = append(opts, app.WithResultsWriter(repository.NewResultsWriter(cfg.ResultsDir)))
	}
	return app.New(opts...)
}

// trainers builds one trainer per configured model kind, in order.
func trainers(cfg *config.Config, log logger.Logger) []scoring.Trainer {
	out := make([]scoring.Trainer, 0, len(cfg.Models))
	for _, kind := range cfg.Models {
		switch kind {
		case scoring.KindRidge:
			out = append(out, scoring.NewRidge(
				scoring.WithAlphas(cfg.RidgeAlphas),
				scoring.WithParallelism(cfg.LoadParallelism),
				scoring.WithLogger(log.Named("ridge")),
			))
		case scoring.KindForest:
			out = append(out, scoring.NewForest(
				scoring.WithForestGrid(cfg.ForestGrid()),
				scoring.WithMaxFeatures(cfg.ForestMaxFeatures),
				scoring.WithForestParallelism(cfg.LoadParallelism),
				scoring.WithForestLogger(log.Named("forest")),
			))
		}
	}
	return out
}
