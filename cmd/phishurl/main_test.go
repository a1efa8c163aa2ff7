package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phishurl/db"
	phttp "phishurl/http"
	"phishurl/ml"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeTestConfig(t *testing.T, withHistory bool) (configPath, modelPath, historyPath string) {
	t.Helper()
	dir := t.TempDir()
	modelPath = filepath.Join(dir, "models", "phishing_model.json")
	historyPath = filepath.Join(dir, "history.db")
	dataset, err := filepath.Abs(filepath.Join("..", "..", "ml", "testdata", "urls.csv"))
	require.NoError(t, err)

	body := fmt.Sprintf(`
dataset:
  path: %q
model:
  path: %q
training:
  forest:
    trees: 5
database:
  enabled: %t
  driver: sqlite3
  dsn: %q
log:
  level: error
`, dataset, modelPath, withHistory, historyPath)
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(body), 0o644))
	return configPath, modelPath, historyPath
}

func TestFeaturesCommand(t *testing.T) {
	out, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "features", "http://192.168.1.1/login.php")
	require.NoError(t, err)
	assert.Contains(t, out, "Hostname: 192.168.1.1")
	assert.Regexp(t, `has_ip_address\s+1`, out)
	assert.Regexp(t, `uses_https\s+0`, out)
	for _, name := range ml.FeatureNames() {
		assert.Contains(t, out, name)
	}
}

func TestPredictWithoutModel(t *testing.T) {
	configPath, modelPath, _ := writeTestConfig(t, false)
	_, err := runCLI(t, "--config", configPath, "predict", "https://example.com")
	require.Error(t, err)
	assert.True(t, ml.IsModelNotFound(err))
	assert.Contains(t, err.Error(), modelPath)
	assert.Contains(t, err.Error(), "phishurl train")
}

func TestTrainThenPredict(t *testing.T) {
	configPath, modelPath, historyPath := writeTestConfig(t, true)

	out, err := runCLI(t, "--config", configPath, "train")
	require.NoError(t, err)
	assert.Contains(t, out, "Logistic Regression")
	assert.Contains(t, out, "Decision Tree")
	assert.Contains(t, out, "Random Forest")
	assert.Contains(t, out, "Best model:")
	assert.Contains(t, out, "Model saved to "+modelPath)

	out, err = runCLI(t, "--config", configPath, "predict", "http://192.168.1.1/login.php")
	require.NoError(t, err)
	assert.Contains(t, out, "Prediction: Phishing")
	assert.Contains(t, out, "WARNING")

	out, err = runCLI(t, "--config", configPath, "predict", "--json", "https://www.google.com")
	require.NoError(t, err)
	var p ml.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, ml.Legitimate, p.Label)
	assert.InDelta(t, 1.0, p.ProbabilityLegitimate+p.ProbabilityPhishing, 1e-9)

	store, err := db.Open("sqlite3", historyPath, nil)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.TrainingHistory(t.Context(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestTrainMissingDataset(t *testing.T) {
	configPath, _, _ := writeTestConfig(t, false)
	_, err := runCLI(t, "--config", configPath, "train", "--dataset", filepath.Join(t.TempDir(), "missing.csv"))
	var notFound *ml.DatasetNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runCLI(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud", "features", "x")
	assert.Error(t, err)
}

func TestBuildContainer(t *testing.T) {
	configPath, _, _ := writeTestConfig(t, false)
	a := &app{configPath: configPath}
	require.NoError(t, a.init())

	container, err := buildContainer(a.cfg, a.logger)
	require.NoError(t, err)
	require.NoError(t, container.Invoke(func(models *phttp.ModelStore, history *db.Store) {
		assert.Nil(t, models.Predictor())
		assert.Nil(t, history)
	}))
}

func TestCompareCommand(t *testing.T) {
	configPath, _, _ := writeTestConfig(t, false)
	dir := t.TempDir()

	original, err := os.ReadFile(filepath.Join("..", "..", "ml", "testdata", "urls.csv"))
	require.NoError(t, err)
	lines := strings.SplitAfter(strings.TrimRight(string(original), "\n")+"\n", "\n")
	doubled := filepath.Join(dir, "doubled.csv")
	require.NoError(t, os.WriteFile(doubled, []byte(strings.Join(lines, "")+strings.Join(lines[1:], "")), 0o644))
	missing := filepath.Join(dir, "missing.csv")

	out, err := runCLI(t, "--config", configPath, "compare",
		"--dataset", filepath.Join("..", "..", "ml", "testdata", "urls.csv"),
		"--dataset", doubled,
		"--dataset", missing)
	require.NoError(t, err)
	assert.Contains(t, out, "Dataset not found, skipped: "+missing)
	assert.Regexp(t, `urls\.csv\s+30\s+24\s+6\s`, out)
	assert.Regexp(t, `doubled\.csv\s+60\s+24\s+6\s`, out, "duplicates are cleaned before the split")
}

func TestCompareCommandNoDatasets(t *testing.T) {
	configPath, _, _ := writeTestConfig(t, false)
	_, err := runCLI(t, "--config", configPath, "compare", "--dataset", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
