package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"

	app "github.com/okian/mvpcast/internal/app"
	"github.com/okian/mvpcast/internal/domain/types"
	"github.com/okian/mvpcast/pkg/logger"
	"github.com/spf13/cobra"
)

func newForecastCmd(env *runtimeEnv) *cobra.Command {
	var trainFirst bool
	cmd := &cobra.Command{
		Use:   "forecast [season-end-years...]",
		Short: "Forecast leaderboards for seasons without final votes",
		Long: `Score each season with the saved model bundle, print the leaderboard
and write it to results_dir. Seasons default to forecast_seasons.

Examples:
  mvpcast forecast
  mvpcast forecast 2026
  mvpcast forecast --train 2025 2026`,
		RunE: func(cmd *cobra.Command, args []string) error {
			years, err := parseYears(args, env.cfg.ForecastSeasons)
			if err != nil {
				return err
			}
			svc := newService(env.cfg, env.log, true)
			ctx := cmd.Context()
			if trainFirst {
				rep, err := svc.Train(ctx)
				if err != nil {
					return fmt.Errorf("train: %w", err)
				}
				if err := printTrainReport(cmd.OutOrStdout(), rep); err != nil {
					return err
				}
			}

			var errs []error
			for _, year := range years {
				res, err := svc.Forecast(ctx, year)
				if err != nil {
					env.log.Error(ctx, "forecast failed", logger.Int("season", year), logger.Error(err))
					errs = append(errs, fmt.Errorf("forecast %d: %w", year, err))
					continue
				}
				if err := printForecast(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&trainFirst, "train", false, "Train and save a bundle before forecasting")
	return cmd
}

func parseYears(args []string, fallback []int) ([]int, error) {
	if len(args) == 0 {
		return append([]int(nil), fallback...), nil
	}
	years := make([]int, 0, len(args))
	for _, a := range args {
		y, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid season end year %q", a)
		}
		years = append(years, y)
	}
	return years, nil
}

func printForecast(out io.Writer, res *app.ForecastResult) error {
	fmt.Fprintf(out, "\n%s MVP forecast (run %s)\n", res.Season, res.RunID)
	if len(res.Missing) > 0 {
		fmt.Fprintf(out, "scored without %d missing features: %v\n", len(res.Missing), res.Missing)
	}
	if len(res.Entries) == 0 {
		fmt.Fprintln(out, "no players met the games floor")
	} else {
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(w, "#\tPlayer\tTeam\tPred share\tG\t")
		for _, e := range res.Entries {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t\n", e.Rank, e.Player, e.Team, fmtFloat(e.PredictedShare, 3), fmtFloat(e.Games, 0))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}
	if res.Path != "" {
		fmt.Fprintf(out, "wrote %s\n", res.Path)
	}
	return nil
}

func fmtFloat(f types.Float, prec int) string {
	if math.IsNaN(float64(f)) {
		return "-"
	}
	return fmt.Sprintf("%.*f", prec, float64(f))
}
