package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishurl/ml"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ml.DefaultTrainerConfig(), cfg.TrainerConfig())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
dataset:
  path: /srv/urls.csv
training:
  seed: 7
  forest:
    trees: 25
http:
  port: 9090
  allowed_origins: ["https://example.com"]
database:
  driver: mysql
  dsn: "user:pw@tcp(localhost:3306)/phishurl?parseTime=true"
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/urls.csv", cfg.Dataset.Path)
	assert.True(t, cfg.Dataset.Clean)
	assert.Equal(t, int64(7), cfg.Training.Seed)
	assert.Equal(t, 25, cfg.Training.Forest.Trees)
	assert.Equal(t, 10, cfg.Training.Forest.MaxDepth, "untouched nested values keep their defaults")
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"https://example.com"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "models/phishing_model.json", cfg.Model.Path)

	tc := cfg.TrainerConfig()
	assert.Equal(t, int64(7), tc.Seed)
	assert.Equal(t, 25, tc.ForestTrees)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "training:\n  test_ratio: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "test_ratio")

	_, err = Load(writeConfig(t, "database:\n  driver: postgres\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")

	_, err = Load(writeConfig(t, "http: [\n"))
	require.Error(t, err)
}

func TestValidateLogSettings(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "verbose"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Database.Enabled = false
	cfg.Database.Driver = ""
	require.NoError(t, cfg.Validate())
}
