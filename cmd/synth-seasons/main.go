// Command synth-seasons writes deterministic raw season directories for
// local runs and demos.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/mvpcast/internal/synth"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	cfg := synth.DefaultConfig()
	var (
		dir       string
		from, to  int
		logFormat string
	)
	cmd := &cobra.Command{
		Use:   "synth-seasons",
		Short: "Write synthetic raw season tables",
		Long: `Write one directory of raw CSV tables per season end year in [from, to].
Seasons after --last-voting get no mvp_voting.csv, like a season in progress.

Examples:
  synth-seasons --dir data
  synth-seasons --dir data --from 2010 --to 2026 --seed 42`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if from > to {
				return fmt.Errorf("--from %d is after --to %d", from, to)
			}
			if cfg.Players < 10 {
				return fmt.Errorf("--players must be at least 10, got %d", cfg.Players)
			}
			if err := logger.InitWithOptions(logger.WithWriter(cmd.ErrOrStderr()), logger.WithFormat(logFormat)); err != nil {
				return err
			}
			log := logger.Named("synth")

			years := make([]int, 0, to-from+1)
			for y := from; y <= to; y++ {
				years = append(years, y)
			}
			if err := synth.WriteSeasons(cmd.Context(), dir, years, cfg); err != nil {
				return err
			}
			log.Info(cmd.Context(), "wrote synthetic seasons",
				logger.String("dir", dir),
				logger.Int("from", from),
				logger.Int("to", to),
				logger.Int("players", cfg.Players),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "data", "Output directory")
	f.IntVar(&from, "from", 2016, "First season end year")
	f.IntVar(&to, "to", 2026, "Last season end year")
	f.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Base random seed")
	f.IntVar(&cfg.Players, "players", cfg.Players, "Player pool size")
	f.IntVar(&cfg.LastVotingSeason, "last-voting", cfg.LastVotingSeason, "Last season with award voting")
	f.Float64Var(&cfg.TradeRate, "trade-rate", cfg.TradeRate, "Share of players traded mid-season")
	f.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	return cmd
}
