package http

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"phishurl/ml"
)

// TrainingConfig locates the dataset and the artifact for a training run.
type TrainingConfig struct {
	DatasetPath string
	ModelPath   string
	Trainer     ml.TrainerConfig

	// Clean trims URLs and drops blank and duplicate rows before training.
	Clean bool
}

// TrainingResult describes a completed training run.
type TrainingResult struct {
	Model    *ml.Model
	Report   *ml.EvaluationReport
	Dataset  string
	Rows     int // before cleaning
	Cleaning *ml.CleaningStats
	SavedTo  string
}

// TrainModel loads the dataset, trains every variant, and writes the winner
// to the model path. Both the CLI and the retrain endpoint go through it.
func TrainModel(config TrainingConfig, logger *zap.Logger) (*TrainingResult, error) {
	if config.ModelPath == "" {
		return nil, errors.New("model path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()
	result, err := EvaluateDataset(config, logger)
	if err != nil {
		return nil, err
	}
	if err := ml.SaveModel(config.ModelPath, result.Model); err != nil {
		return nil, err
	}
	result.SavedTo = config.ModelPath
	logger.Info("model saved",
		zap.String("path", config.ModelPath),
		zap.String("model", result.Model.Name()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// EvaluateDataset runs the training pipeline without writing an artifact.
// ModelPath is ignored.
func EvaluateDataset(config TrainingConfig, logger *zap.Logger) (*TrainingResult, error) {
	if config.DatasetPath == "" {
		return nil, errors.New("dataset path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ds, err := ml.LoadDataset(config.DatasetPath)
	if err != nil {
		return nil, err
	}
	counts := ds.ClassCounts()
	logger.Info("dataset loaded",
		zap.String("path", config.DatasetPath),
		zap.Int("rows", ds.Len()),
		zap.Int("legitimate", counts[ml.Legitimate]),
		zap.Int("phishing", counts[ml.Phishing]),
	)

	result := &TrainingResult{Dataset: config.DatasetPath, Rows: ds.Len()}
	if config.Clean {
		cleaned, stats := ml.DefaultCleaner().Clean(ds)
		logger.Info("dataset cleaned",
			zap.Int("passed", stats.Passed),
			zap.Int("rejected", stats.Rejected),
			zap.Int("corrected", stats.Corrected),
			zap.Any("issues", stats.Issues),
		)
		ds = cleaned
		result.Cleaning = &stats
	}

	result.Model, result.Report, err = ml.NewTrainer(config.Trainer, logger).TrainDataset(ds)
	if err != nil {
		return nil, err
	}
	return result, nil
}
