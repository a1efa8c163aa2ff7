package ml

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

type TrainerConfig struct {
	TestRatio float64
	Seed      int64
	Stratify  bool

	LogisticMaxIter      int
	LogisticLearningRate float64
	LogisticC            float64

	TreeMaxDepth int

	ForestTrees       int
	ForestMaxDepth    int
	ForestMaxFeatures int
}

func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		TestRatio:            0.2,
		Seed:                 42,
		Stratify:             true,
		LogisticMaxIter:      1000,
		LogisticLearningRate: 0.1,
		LogisticC:            1.0,
		TreeMaxDepth:         10,
		ForestTrees:          100,
		ForestMaxDepth:       10,
	}
}

type VariantResult struct {
	Name    string    `json:"name"`
	Type    ModelType `json:"type"`
	Metrics Metrics   `json:"metrics"`
}

type EvaluationReport struct {
	Variants         []VariantResult `json:"variants"`
	Selected         ModelType       `json:"selected"`
	SelectedName     string          `json:"selected_name"`
	TrainSize        int             `json:"train_size"`
	TestSize         int             `json:"test_size"`
	TrainClassCounts map[Label]int   `json:"train_class_counts"`
	TestClassCounts  map[Label]int   `json:"test_class_counts"`
	Confusion        ConfusionMatrix `json:"confusion_matrix"`
	Classes          []ClassReport   `json:"classification_report"`
	Duration         time.Duration   `json:"duration_ns"`
}

func (r *EvaluationReport) Best() VariantResult {
	for _, v := range r.Variants {
		if v.Type == r.Selected {
			return v
		}
	}
	return VariantResult{}
}

type Trainer struct {
	config TrainerConfig
	logger *zap.Logger
	now    func() time.Time
}

func NewTrainer(config TrainerConfig, logger *zap.Logger) *Trainer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{config: config, logger: logger, now: time.Now}
}

type variant struct {
	kind  ModelType
	model Classifier
}

func (t *Trainer) variants() []variant {
	c := t.config
	return []variant{
		{LogisticRegressionModel, NewLogisticRegression(c.LogisticMaxIter, c.LogisticLearningRate, c.LogisticC)},
		{DecisionTreeModel, NewDecisionTree(c.TreeMaxDepth, c.Seed)},
		{RandomForestModel, NewRandomForest(c.ForestTrees, c.ForestMaxDepth, c.ForestMaxFeatures, c.Seed)},
	}
}

// Train splits the data, fits every variant on the training partition and
// keeps the one with the highest test F1. Ties go to the earlier variant.
func (t *Trainer) Train(features [][]float64, labels []int) (*Model, *EvaluationReport, error) {
	if err := checkTrainingSet(features, labels); err != nil {
		return nil, nil, fmt.Errorf("training set: %w", err)
	}
	start := t.now()

	trainX, trainY, testX, testY := SplitDataset(features, labels, t.config.TestRatio, t.config.Seed, t.config.Stratify)
	report := &EvaluationReport{
		TrainSize:        len(trainY),
		TestSize:         len(testY),
		TrainClassCounts: classCounts(trainY),
		TestClassCounts:  classCounts(testY),
	}
	t.logger.Info("split dataset",
		zap.Int("train", report.TrainSize),
		zap.Int("test", report.TestSize),
		zap.Int("train_legitimate", report.TrainClassCounts[Legitimate]),
		zap.Int("train_phishing", report.TrainClassCounts[Phishing]),
		zap.Int("test_legitimate", report.TestClassCounts[Legitimate]),
		zap.Int("test_phishing", report.TestClassCounts[Phishing]),
	)

	if report.TrainClassCounts[Legitimate] == 0 || report.TrainClassCounts[Phishing] == 0 {
		return nil, nil, &InsufficientDataError{Split: "training", ClassCounts: report.TrainClassCounts}
	}
	if report.TestSize == 0 || report.TestClassCounts[Phishing] == 0 {
		t.logger.Warn("test split has no phishing samples, F1 is 0 for every variant and the first variant is kept")
	}

	var (
		best     Classifier
		bestType ModelType
		bestF1   float64
		bestCM   ConfusionMatrix
		haveBest bool
	)
	for _, v := range t.variants() {
		t.logger.Info("training model", zap.String("model", v.kind.DisplayName()))
		if err := v.model.Train(trainX, trainY); err != nil {
			return nil, nil, fmt.Errorf("train %s: %w", v.kind.DisplayName(), err)
		}
		metrics, cm, err := Evaluate(v.model, testX, testY)
		if err != nil {
			return nil, nil, fmt.Errorf("evaluate %s: %w", v.kind.DisplayName(), err)
		}
		report.Variants = append(report.Variants, VariantResult{Name: v.kind.DisplayName(), Type: v.kind, Metrics: metrics})
		t.logger.Info("model evaluated",
			zap.String("model", v.kind.DisplayName()),
			zap.Float64("accuracy", metrics.Accuracy),
			zap.Float64("precision", metrics.Precision),
			zap.Float64("recall", metrics.Recall),
			zap.Float64("f1", metrics.F1),
		)

		if !haveBest || metrics.F1 > bestF1 {
			best, bestType, bestF1, bestCM, haveBest = v.model, v.kind, metrics.F1, cm, true
		}
	}

	report.Selected = bestType
	report.SelectedName = bestType.DisplayName()
	report.Confusion = bestCM
	report.Classes = bestCM.ClassificationReport()
	report.Duration = t.now().Sub(start)
	t.logger.Info("selected best model", zap.String("model", report.SelectedName), zap.Float64("f1", bestF1))

	model := &Model{
		Type:         bestType,
		Classifier:   best,
		FeatureNames: FeatureNames(),
		TrainedAt:    t.now().UTC(),
		Report:       report,
	}
	return model, report, nil
}

// TrainDataset is a convenience wrapper over Train for a loaded dataset.
func (t *Trainer) TrainDataset(ds *Dataset) (*Model, *EvaluationReport, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, nil, &InsufficientDataError{Split: "dataset", ClassCounts: map[Label]int{}}
	}
	return t.Train(ds.Features, ds.Labels)
}
