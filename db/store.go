package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"phishurl/ml"
)

var ErrNotInitialized = errors.New("database not initialized")

// Timestamps are stored as Unix nanoseconds so both drivers read them back
// without DSN-specific time parsing.
var schemas = map[string][]string{
	"sqlite3": {
		`CREATE TABLE IF NOT EXISTS predictions (
            id VARCHAR(36) PRIMARY KEY,
            url TEXT NOT NULL,
            label INTEGER NOT NULL,
            probability_phishing REAL NOT NULL,
            confidence REAL NOT NULL,
            model_type VARCHAR(32) NOT NULL,
            created_at BIGINT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions (created_at)`,
		`CREATE TABLE IF NOT EXISTS training_log (
            id VARCHAR(36) PRIMARY KEY,
            model_name VARCHAR(50) NOT NULL,
            model_type VARCHAR(32) NOT NULL,
            accuracy REAL,
            precision_score REAL,
            recall_score REAL,
            f1_score REAL,
            train_size INTEGER,
            test_size INTEGER,
            dataset_path TEXT,
            trained_at BIGINT NOT NULL
        )`,
	},
	"mysql": {
		`CREATE TABLE IF NOT EXISTS predictions (
            id VARCHAR(36) PRIMARY KEY,
            url TEXT NOT NULL,
            label INTEGER NOT NULL,
            probability_phishing DOUBLE NOT NULL,
            confidence DOUBLE NOT NULL,
            model_type VARCHAR(32) NOT NULL,
            created_at BIGINT NOT NULL,
            INDEX idx_predictions_created_at (created_at)
        )`,
		`CREATE TABLE IF NOT EXISTS training_log (
            id VARCHAR(36) PRIMARY KEY,
            model_name VARCHAR(50) NOT NULL,
            model_type VARCHAR(32) NOT NULL,
            accuracy DOUBLE,
            precision_score DOUBLE,
            recall_score DOUBLE,
            f1_score DOUBLE,
            train_size INTEGER,
            test_size INTEGER,
            dataset_path TEXT,
            trained_at BIGINT NOT NULL
        )`,
	},
}

type PredictionRecord struct {
	ID                  string       `json:"id"`
	URL                 string       `json:"url"`
	Label               ml.Label     `json:"label"`
	Prediction          string       `json:"prediction"`
	ProbabilityPhishing float64      `json:"probability_phishing"`
	Confidence          float64      `json:"confidence"`
	ModelType           ml.ModelType `json:"model_type"`
	CreatedAt           time.Time    `json:"created_at"`
}

type TrainingRun struct {
	ID          string       `json:"id"`
	ModelName   string       `json:"model_name"`
	ModelType   ml.ModelType `json:"model_type"`
	Accuracy    float64      `json:"accuracy"`
	Precision   float64      `json:"precision"`
	Recall      float64      `json:"recall"`
	F1          float64      `json:"f1"`
	TrainSize   int          `json:"train_size"`
	TestSize    int          `json:"test_size"`
	DatasetPath string       `json:"dataset_path"`
	TrainedAt   time.Time    `json:"trained_at"`
}

// Store records served predictions and training runs.
type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

func Open(driver, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	schema, ok := schemas[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	database, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// A single writer connection avoids SQLITE_BUSY under concurrent handlers.
		database.SetMaxOpenConns(1)
	}
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}
	for _, stmt := range schema {
		if _, err := database.Exec(stmt); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}
	logger.Info("history store ready", zap.String("driver", driver))
	return &Store{
		db:     database,
		driver: driver,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) SavePrediction(ctx context.Context, p ml.Prediction, modelType ml.ModelType) (PredictionRecord, error) {
	if s == nil || s.db == nil {
		return PredictionRecord{}, ErrNotInitialized
	}
	rec := PredictionRecord{
		ID:                  s.newID(),
		URL:                 p.URL,
		Label:               p.Label,
		Prediction:          p.Label.String(),
		ProbabilityPhishing: p.ProbabilityPhishing,
		Confidence:          p.Confidence,
		ModelType:           modelType,
		CreatedAt:           s.now().UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO predictions (id, url, label, probability_phishing, confidence, model_type, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, int(rec.Label), rec.ProbabilityPhishing, rec.Confidence, string(rec.ModelType), rec.CreatedAt.UnixNano())
	if err != nil {
		return PredictionRecord{}, fmt.Errorf("insert prediction: %w", err)
	}
	return rec, nil
}

// RecentPredictions returns up to limit records, newest first.
func (s *Store) RecentPredictions(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, url, label, probability_phishing, confidence, model_type, created_at
        FROM predictions
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var (
			rec       PredictionRecord
			label     int
			modelType string
			created   int64
		)
		if err := rows.Scan(&rec.ID, &rec.URL, &label, &rec.ProbabilityPhishing, &rec.Confidence, &modelType, &created); err != nil {
			return nil, err
		}
		rec.Label = ml.Label(label)
		rec.Prediction = rec.Label.String()
		rec.ModelType = ml.ModelType(modelType)
		rec.CreatedAt = time.Unix(0, created).UTC()
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) SaveTrainingRun(ctx context.Context, report *ml.EvaluationReport, datasetPath string, trainedAt time.Time) (TrainingRun, error) {
	if s == nil || s.db == nil {
		return TrainingRun{}, ErrNotInitialized
	}
	if report == nil {
		return TrainingRun{}, errors.New("training report required")
	}
	best := report.Best()
	run := TrainingRun{
		ID:          s.newID(),
		ModelName:   report.SelectedName,
		ModelType:   report.Selected,
		Accuracy:    best.Metrics.Accuracy,
		Precision:   best.Metrics.Precision,
		Recall:      best.Metrics.Recall,
		F1:          best.Metrics.F1,
		TrainSize:   report.TrainSize,
		TestSize:    report.TestSize,
		DatasetPath: datasetPath,
		TrainedAt:   trainedAt.UTC(),
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO training_log (
            id, model_name, model_type, accuracy, precision_score, recall_score, f1_score,
            train_size, test_size, dataset_path, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ModelName, string(run.ModelType), run.Accuracy, run.Precision, run.Recall, run.F1,
		run.TrainSize, run.TestSize, run.DatasetPath, run.TrainedAt.UnixNano())
	if err != nil {
		return TrainingRun{}, fmt.Errorf("insert training run: %w", err)
	}
	return run, nil
}

func (s *Store) TrainingHistory(ctx context.Context, limit int) ([]TrainingRun, error) {
	if s == nil || s.db == nil {
		return nil, ErrNotInitialized
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, model_name, model_type, accuracy, precision_score, recall_score, f1_score,
               train_size, test_size, dataset_path, trained_at
        FROM training_log
        ORDER BY trained_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query training log: %w", err)
	}
	defer rows.Close()

	runs := make([]TrainingRun, 0)
	for rows.Next() {
		var (
			run       TrainingRun
			modelType string
			dataset   sql.NullString
			trained   int64
		)
		if err := rows.Scan(&run.ID, &run.ModelName, &modelType, &run.Accuracy, &run.Precision, &run.Recall, &run.F1,
			&run.TrainSize, &run.TestSize, &dataset, &trained); err != nil {
			return nil, err
		}
		run.ModelType = ml.ModelType(modelType)
		run.DatasetPath = dataset.String
		run.TrainedAt = time.Unix(0, trained).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
