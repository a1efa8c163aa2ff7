package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	phttp "phishurl/http"
	"phishurl/ml"
)

func newCompareCmd(a *app) *cobra.Command {
	var datasets []string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Train on several datasets and compare the best model of each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(datasets) == 0 {
				datasets = []string{a.cfg.Dataset.Path}
			}
			out := cmd.OutOrStdout()

			var results []*phttp.TrainingResult
			for _, path := range datasets {
				result, err := phttp.EvaluateDataset(phttp.TrainingConfig{
					DatasetPath: path,
					Clean:       a.cfg.Dataset.Clean,
					Trainer:     a.cfg.TrainerConfig(),
				}, a.logger)
				if err != nil {
					var notFound *ml.DatasetNotFoundError
					if errors.As(err, &notFound) {
						fmt.Fprintf(out, "Dataset not found, skipped: %s\n", path)
						continue
					}
					return fmt.Errorf("%s: %w", path, err)
				}
				results = append(results, result)
			}
			if len(results) == 0 {
				return errors.New("none of the datasets could be found")
			}
			printComparison(out, results)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&datasets, "dataset", nil, "dataset to evaluate, repeat to compare several (default from config)")
	return cmd
}

func printComparison(out io.Writer, results []*phttp.TrainingResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tTRAIN\tTEST\tBEST\tACCURACY\tPRECISION\tRECALL\tF1")
	for _, r := range results {
		best := r.Report.Best()
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			r.Dataset, r.Rows, r.Report.TrainSize, r.Report.TestSize, best.Name,
			best.Metrics.Accuracy, best.Metrics.Precision, best.Metrics.Recall, best.Metrics.F1)
	}
	tw.Flush()
}
