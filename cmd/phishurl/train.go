package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phishurl/db"
	phttp "phishurl/http"
	"phishurl/ml"
)

func newTrainCmd(a *app) *cobra.Command {
	var datasetPath, modelPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train all model variants and save the best one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if datasetPath == "" {
				datasetPath = a.cfg.Dataset.Path
			}
			if modelPath == "" {
				modelPath = a.cfg.Model.Path
			}

			result, err := phttp.TrainModel(phttp.TrainingConfig{
				DatasetPath: datasetPath,
				ModelPath:   modelPath,
				Clean:       a.cfg.Dataset.Clean,
				Trainer:     a.cfg.TrainerConfig(),
			}, a.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printReport(out, result.Report)
			fmt.Fprintf(out, "\nModel saved to %s\n", result.SavedTo)

			a.recordTrainingRun(cmd.Context(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "", "CSV dataset with url and label columns (default from config)")
	cmd.Flags().StringVar(&modelPath, "model", "", "where to write the model artifact (default from config)")
	return cmd
}

func printReport(out io.Writer, report *ml.EvaluationReport) {
	fmt.Fprintf(out, "Training samples: %d (legitimate %d, phishing %d)\n",
		report.TrainSize, report.TrainClassCounts[ml.Legitimate], report.TrainClassCounts[ml.Phishing])
	fmt.Fprintf(out, "Test samples:     %d (legitimate %d, phishing %d)\n\n",
		report.TestSize, report.TestClassCounts[ml.Legitimate], report.TestClassCounts[ml.Phishing])

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tACCURACY\tPRECISION\tRECALL\tF1")
	for _, v := range report.Variants {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n", v.Name, v.Metrics.Accuracy, v.Metrics.Precision, v.Metrics.Recall, v.Metrics.F1)
	}
	tw.Flush()

	fmt.Fprintf(out, "\nBest model: %s (F1 %.4f)\n\n", report.SelectedName, report.Best().Metrics.F1)
	fmt.Fprintln(out, "Confusion matrix:")
	fmt.Fprint(out, report.Confusion.String())

	fmt.Fprintln(out, "\nClassification report:")
	tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tPRECISION\tRECALL\tF1\tSUPPORT")
	for _, c := range report.Classes {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t%d\n", c.Class, c.Precision, c.Recall, c.F1, c.Support)
	}
	tw.Flush()
}

// recordTrainingRun is best effort: a missing history database never fails
// training.
func (a *app) recordTrainingRun(ctx context.Context, result *phttp.TrainingResult) {
	if !a.cfg.Database.Enabled {
		return
	}
	store, err := db.Open(a.cfg.Database.Driver, a.cfg.Database.DSN, a.logger)
	if err != nil {
		a.logger.Warn("history store unavailable", zap.Error(err))
		return
	}
	defer store.Close()
	if _, err := store.SaveTrainingRun(ctx, result.Report, result.Dataset, result.Model.TrainedAt); err != nil {
		a.logger.Warn("failed to record training run", zap.Error(err))
	}
}
