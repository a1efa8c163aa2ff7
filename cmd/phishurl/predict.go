package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"phishurl/ml"
)

func newPredictCmd(a *app) *cobra.Command {
	var (
		modelPath string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "predict URL...",
		Short: "Classify one or more URLs with the saved model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelPath == "" {
				modelPath = a.cfg.Model.Path
			}
			model, err := ml.LoadModel(modelPath)
			if err != nil {
				return err
			}
			predictions, err := ml.NewPredictor(model).PredictBatch(args)
			if err != nil {
				return fmt.Errorf("prediction failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if len(predictions) == 1 {
					return enc.Encode(predictions[0])
				}
				return enc.Encode(predictions)
			}
			for _, p := range predictions {
				printPrediction(out, p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact to load (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print predictions as JSON")
	return cmd
}

func printPrediction(out io.Writer, p ml.Prediction) {
	fmt.Fprintf(out, "\nAnalyzing URL: %s\n", p.URL)
	fmt.Fprintln(out, strings.Repeat("-", 60))
	fmt.Fprintf(out, "Prediction: %s\n", p.Prediction)
	fmt.Fprintf(out, "Confidence: %.2f%%\n", p.Confidence*100)
	fmt.Fprintln(out, "Probabilities:")
	fmt.Fprintf(out, "  Legitimate: %.2f%%\n", p.ProbabilityLegitimate*100)
	fmt.Fprintf(out, "  Phishing:   %.2f%%\n", p.ProbabilityPhishing*100)
	if p.IsPhishing() {
		fmt.Fprintln(out, "WARNING: This URL appears to be a phishing attempt!")
	} else {
		fmt.Fprintln(out, "This URL appears to be legitimate.")
	}
}
