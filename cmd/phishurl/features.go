package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"phishurl/ml"
)

func newFeaturesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "features URL...",
		Short: "Print the extracted feature vector for each URL",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			names := ml.FeatureNames()
			for _, url := range args {
				f := ml.ExtractFeatures(url)
				fmt.Fprintf(out, "\nURL: %s\n", url)
				fmt.Fprintf(out, "Hostname: %s\n", f.Hostname)
				fmt.Fprintln(out, strings.Repeat("-", 60))
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				for i, v := range ml.FeatureVector(f) {
					fmt.Fprintf(tw, "  %s\t%g\n", names[i], v)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
