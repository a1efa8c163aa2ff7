package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"phishurl/db"
	phttp "phishurl/http"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web front-end and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.HTTP.Port = port
			}
			container, err := buildContainer(a.cfg, a.logger)
			if err != nil {
				return err
			}
			return container.Invoke(func(server *phttp.Server, models *phttp.ModelStore, history *db.Store) error {
				return a.serve(cmd.Context(), server, models, history)
			})
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override http.port")
	return cmd
}

func (a *app) serve(parent context.Context, server *phttp.Server, models *phttp.ModelStore, history *db.Store) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer history.Close()

	if a.cfg.Model.Watch {
		if err := os.MkdirAll(filepath.Dir(models.Path()), 0o755); err != nil {
			return err
		}
		if err := models.Watch(ctx); err != nil {
			a.logger.Warn("model hot reload disabled", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	a.logger.Info("shutting down")
	if err := server.Stop(); err != nil {
		a.logger.Error("server forced to shutdown", zap.Error(err))
	}
	a.logger.Info("exiting")
	return nil
}
