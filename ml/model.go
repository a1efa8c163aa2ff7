package ml

import "time"

// Classifier is the capability set every persisted model exposes. Labels
// are 0 (legitimate) or 1 (phishing); probabilities are ordered the same way.
type Classifier interface {
	Train(features [][]float64, labels []int) error
	PredictLabel(features []float64) (int, error)
	PredictProbabilities(features []float64) ([2]float64, error)
}

type FeatureImportancer interface {
	FeatureImportances() []float64
}

type ModelType string

const (
	LogisticRegressionModel ModelType = "logistic_regression"
	DecisionTreeModel       ModelType = "decision_tree"
	RandomForestModel       ModelType = "random_forest"
)

func (t ModelType) DisplayName() string {
	switch t {
	case LogisticRegressionModel:
		return "Logistic Regression"
	case DecisionTreeModel:
		return "Decision Tree"
	case RandomForestModel:
		return "Random Forest"
	}
	return string(t)
}

// Model is a fitted classifier together with the feature contract it was
// trained on. It is not mutated after creation.
type Model struct {
	Type         ModelType
	Classifier   Classifier
	FeatureNames []string
	TrainedAt    time.Time
	Report       *EvaluationReport
}

func (m *Model) Name() string {
	return m.Type.DisplayName()
}

type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportances returns nil when the classifier cannot report them.
func (m *Model) FeatureImportances() []FeatureImportance {
	fi, ok := m.Classifier.(FeatureImportancer)
	if !ok {
		return nil
	}
	values := fi.FeatureImportances()
	if len(values) != len(m.FeatureNames) {
		return nil
	}
	out := make([]FeatureImportance, len(values))
	for i, v := range values {
		out[i] = FeatureImportance{Feature: m.FeatureNames[i], Importance: v}
	}
	return out
}
