package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phishurl/config"
	"phishurl/logging"
)

type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "phishurl",
		Short:         "phishurl: classify URLs as phishing or legitimate",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	cmd.Version = version
	cmd.SetVersionTemplate("phishurl {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "path to the YAML config file (optional)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level: debug|info|warn|error")

	cmd.AddCommand(newTrainCmd(a))
	cmd.AddCommand(newPredictCmd(a))
	cmd.AddCommand(newFeaturesCmd(a))
	cmd.AddCommand(newCompareCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}
