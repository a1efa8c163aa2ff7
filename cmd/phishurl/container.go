package main

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"phishurl/config"
	"phishurl/db"
	phttp "phishurl/http"
	"phishurl/ml"
)

// buildContainer registers every component the serve command needs.
func buildContainer(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func() *zap.Logger { return logger },
		provideModelStore,
		provideHistory,
		provideAPI,
		provideServer,
	}
	for _, p := range providers {
		if err := container.Provide(p); err != nil {
			return nil, fmt.Errorf("failed to provide dependency: %w", err)
		}
	}
	return container, nil
}

// provideModelStore tolerates a missing artifact so the server can start and
// be trained through the API.
func provideModelStore(cfg *config.Config, logger *zap.Logger) (*phttp.ModelStore, error) {
	store, err := phttp.NewModelStore(cfg.Model.Path, cfg.HTTP.CacheSize, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		if !ml.IsModelNotFound(err) {
			return nil, err
		}
		logger.Warn("no model loaded, predictions return 503 until one is trained", zap.String("path", cfg.Model.Path))
	}
	return store, nil
}

// provideHistory returns a nil store when history is disabled.
func provideHistory(cfg *config.Config, logger *zap.Logger) (*db.Store, error) {
	if !cfg.Database.Enabled {
		return nil, nil
	}
	return db.Open(cfg.Database.Driver, cfg.Database.DSN, logger)
}

func provideAPI(cfg *config.Config, models *phttp.ModelStore, history *db.Store, logger *zap.Logger) *phttp.API {
	return phttp.NewAPI(models, history, phttp.TrainingConfig{
		DatasetPath: cfg.Dataset.Path,
		ModelPath:   cfg.Model.Path,
		Clean:       cfg.Dataset.Clean,
		Trainer:     cfg.TrainerConfig(),
	}, logger)
}

func provideServer(cfg *config.Config, api *phttp.API, logger *zap.Logger) *phttp.Server {
	return phttp.NewServer(phttp.ServerConfigFrom(cfg.HTTP), api, logger)
}
