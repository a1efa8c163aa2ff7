package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"phishurl/ml"
)

type Config struct {
	Dataset  DatasetConfig  `yaml:"dataset"`
	Model    ModelConfig    `yaml:"model"`
	Training TrainingConfig `yaml:"training"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type DatasetConfig struct {
	Path string `yaml:"path"`

	// Clean drops blank and duplicate URLs before training.
	Clean bool `yaml:"clean"`
}

type ModelConfig struct {
	Path string `yaml:"path"`

	// Watch reloads the artifact when it changes on disk while serving.
	Watch bool `yaml:"watch"`
}

type TrainingConfig struct {
	TestRatio float64 `yaml:"test_ratio"`
	Seed      int64   `yaml:"seed"`
	Stratify  bool    `yaml:"stratify"`
	Logistic  struct {
		MaxIter      int     `yaml:"max_iter"`
		LearningRate float64 `yaml:"learning_rate"`
		C            float64 `yaml:"c"`
	} `yaml:"logistic"`
	Tree struct {
		MaxDepth int `yaml:"max_depth"`
	} `yaml:"tree"`
	Forest struct {
		Trees       int `yaml:"trees"`
		MaxDepth    int `yaml:"max_depth"`
		MaxFeatures int `yaml:"max_features"`
	} `yaml:"forest"`
}

type HTTPConfig struct {
	Port           int      `yaml:"port"`
	TimeoutSeconds int      `yaml:"timeout"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	CacheSize      int      `yaml:"cache_size"`
}

type DatabaseConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"`
	DSN     string `yaml:"dsn"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func Default() *Config {
	t := ml.DefaultTrainerConfig()
	cfg := &Config{
		Dataset: DatasetConfig{Path: "data/phishing_urls.csv", Clean: true},
		Model:   ModelConfig{Path: "models/phishing_model.json", Watch: true},
		HTTP: HTTPConfig{
			Port:           8080,
			TimeoutSeconds: 30,
			AllowedOrigins: []string{"*"},
			RateLimit:      20,
			RateBurst:      40,
			CacheSize:      1024,
		},
		Database: DatabaseConfig{
			Enabled: true,
			Driver:  "sqlite3",
			DSN:     "data/history.db",
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
	cfg.Training.TestRatio = t.TestRatio
	cfg.Training.Seed = t.Seed
	cfg.Training.Stratify = t.Stratify
	cfg.Training.Logistic.MaxIter = t.LogisticMaxIter
	cfg.Training.Logistic.LearningRate = t.LogisticLearningRate
	cfg.Training.Logistic.C = t.LogisticC
	cfg.Training.Tree.MaxDepth = t.TreeMaxDepth
	cfg.Training.Forest.Trees = t.ForestTrees
	cfg.Training.Forest.MaxDepth = t.ForestMaxDepth
	cfg.Training.Forest.MaxFeatures = t.ForestMaxFeatures
	return cfg
}

// Load reads a YAML file over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var problems []string
	if c.Dataset.Path == "" {
		problems = append(problems, "dataset.path is required")
	}
	if c.Model.Path == "" {
		problems = append(problems, "model.path is required")
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		problems = append(problems, fmt.Sprintf("training.test_ratio must be in (0, 1), got %v", c.Training.TestRatio))
	}
	if c.Training.Logistic.MaxIter <= 0 {
		problems = append(problems, "training.logistic.max_iter must be positive")
	}
	if c.Training.Logistic.LearningRate <= 0 {
		problems = append(problems, "training.logistic.learning_rate must be positive")
	}
	if c.Training.Logistic.C <= 0 {
		problems = append(problems, "training.logistic.c must be positive")
	}
	if c.Training.Tree.MaxDepth <= 0 || c.Training.Forest.MaxDepth <= 0 {
		problems = append(problems, "training max_depth values must be positive")
	}
	if c.Training.Forest.Trees <= 0 {
		problems = append(problems, "training.forest.trees must be positive")
	}
	if c.Training.Forest.MaxFeatures < 0 || c.Training.Forest.MaxFeatures > ml.NumFeatures {
		problems = append(problems, fmt.Sprintf("training.forest.max_features must be between 0 and %d", ml.NumFeatures))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, fmt.Sprintf("http.port out of range: %d", c.HTTP.Port))
	}
	if c.HTTP.RateLimit < 0 || c.HTTP.RateBurst < 0 || c.HTTP.CacheSize < 0 {
		problems = append(problems, "http.rate_limit, http.rate_burst and http.cache_size must not be negative")
	}
	if c.Database.Enabled {
		switch c.Database.Driver {
		case "sqlite3", "mysql":
		default:
			problems = append(problems, fmt.Sprintf("database.driver must be sqlite3 or mysql, got %q", c.Database.Driver))
		}
		if c.Database.DSN == "" {
			problems = append(problems, "database.dsn is required when the database is enabled")
		}
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) TrainerConfig() ml.TrainerConfig {
	return ml.TrainerConfig{
		TestRatio:            c.Training.TestRatio,
		Seed:                 c.Training.Seed,
		Stratify:             c.Training.Stratify,
		LogisticMaxIter:      c.Training.Logistic.MaxIter,
		LogisticLearningRate: c.Training.Logistic.LearningRate,
		LogisticC:            c.Training.Logistic.C,
		TreeMaxDepth:         c.Training.Tree.MaxDepth,
		ForestTrees:          c.Training.Forest.Trees,
		ForestMaxDepth:       c.Training.Forest.MaxDepth,
		ForestMaxFeatures:    c.Training.Forest.MaxFeatures,
	}
}
