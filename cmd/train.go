package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	app "github.com/okian/mvpcast/internal/app"
	"github.com/spf13/cobra"
)

func newTrainCmd(env *runtimeEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train the award-share models and save the bundle",
		Long: `Build the panel of completed seasons, fit every configured model with
leave-one-season-out parameter selection, report validation and test metrics
per model, and save the primary model bundle to model_path.

Examples:
  mvpcast train
  MVPCAST_MODELS=ridge mvpcast train
  MVPCAST_TRAIN_SEASONS=2016,2017,2018 mvpcast train`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := newService(env.cfg, env.log, false)
			rep, err := svc.Train(cmd.Context())
			if err != nil {
				return fmt.Errorf("train: %w", err)
			}
			return printTrainReport(cmd.OutOrStdout(), rep)
		},
	}
}

func printTrainReport(out io.Writer, rep *app.TrainReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", rep.RunID)
	fmt.Fprintf(w, "bundle\t%s\n", rep.BundlePath)
	fmt.Fprintf(w, "label\t%s\n", rep.Label)
	fmt.Fprintf(w, "features\t%d\n", len(rep.Features))
	fmt.Fprintf(w, "train rows\t%d\n", rep.TrainRows)
	fmt.Fprintf(w, "model\t%s\n", rep.Model)
	fmt.Fprintf(w, "cv mae\t%.4f\n", rep.CVMAE)
	fmt.Fprintf(w, "validation mae\t%.4f\n", rep.ValidationMAE)
	fmt.Fprintf(w, "test mae\t%.4f\n", rep.Test.MAE)
	fmt.Fprintf(w, "test top-1\t%.2f\n", rep.Test.Top1Rate)
	fmt.Fprintf(w, "test top-3\t%.2f\n", rep.Test.Top3Rate)
	fmt.Fprintf(w, "test spearman\t%.3f\n", rep.Test.MeanSpearman)
	for _, s := range rep.Test.Seasons {
		fmt.Fprintf(w, "  %s winner\t%s (top-1 %t)\n", s.Season, s.Winner, s.Top1)
	}
	fmt.Fprintf(w, "took\t%s\n", rep.Took)
	if err := w.Flush(); err != nil {
		return err
	}
	if len(rep.Models) < 2 {
		return nil
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Model\tCV MAE\tValidation MAE\tTest MAE\tTest top-1\t")
	for _, m := range rep.Models {
		mark := ""
		if m.Kind == rep.Model {
			mark = "*"
		}
		fmt.Fprintf(w, "%s%s\t%.4f\t%.4f\t%.4f\t%.2f\t\n", m.Kind, mark, m.CVMAE, m.ValidationMAE, m.Test.MAE, m.Test.Top1Rate)
	}
	return w.Flush()
}
