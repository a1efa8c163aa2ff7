package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

const artifactVersion = 1

type artifact struct {
	Version      int               `json:"version"`
	ModelType    ModelType         `json:"model_type"`
	ModelName    string            `json:"model_name"`
	FeatureNames []string          `json:"feature_names"`
	TrainedAt    time.Time         `json:"trained_at"`
	Report       *EvaluationReport `json:"report,omitempty"`
	Model        json.RawMessage   `json:"model"`
}

func newClassifier(modelType ModelType) (Classifier, error) {
	switch modelType {
	case LogisticRegressionModel:
		return &LogisticRegression{}, nil
	case DecisionTreeModel:
		return &DecisionTree{}, nil
	case RandomForestModel:
		return &RandomForest{}, nil
	default:
		return nil, fmt.Errorf("unsupported model type %q", modelType)
	}
}

// SaveModel writes the artifact to a temporary file next to path and renames
// it into place, so readers never observe a partially written model.
func SaveModel(path string, model *Model) error {
	if model == nil || model.Classifier == nil {
		return ErrNotTrained
	}
	payload, err := json.Marshal(model.Classifier)
	if err != nil {
		return fmt.Errorf("encode %s: %w", model.Type, err)
	}
	data, err := json.Marshal(artifact{
		Version:      artifactVersion,
		ModelType:    model.Type,
		ModelName:    model.Name(),
		FeatureNames: model.FeatureNames,
		TrainedAt:    model.TrainedAt,
		Report:       model.Report,
		Model:        payload,
	})
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp model file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("install model: %w", err)
	}
	return nil
}

func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ModelNotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("unsupported model artifact version %d", a.Version)
	}
	if !slices.Equal(a.FeatureNames, FeatureNames()) {
		return nil, fmt.Errorf("%w: artifact has %v", ErrFeatureMismatch, a.FeatureNames)
	}

	classifier, err := newClassifier(a.ModelType)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(a.Model, classifier); err != nil {
		return nil, fmt.Errorf("decode %s: %w", a.ModelType, err)
	}

	return &Model{
		Type:         a.ModelType,
		Classifier:   classifier,
		FeatureNames: a.FeatureNames,
		TrainedAt:    a.TrainedAt,
		Report:       a.Report,
	}, nil
}
