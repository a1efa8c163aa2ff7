package ml

import (
	"errors"
	"math"
)

// LogisticRegression is a binary linear classifier fitted with full-batch
// gradient descent on standardized inputs. The objective matches an L2
// penalty of strength 1/C, i.e. mean log-loss + ||w||^2 / (2*C*n).
type LogisticRegression struct {
	MaxIter      int          `json:"max_iter"`
	LearningRate float64      `json:"learning_rate"`
	C            float64      `json:"c"`
	Scaler       Standardizer `json:"scaler"`
	Weights      []float64    `json:"weights"`
	Bias         float64      `json:"bias"`
}

func NewLogisticRegression(maxIter int, learningRate, c float64) *LogisticRegression {
	return &LogisticRegression{MaxIter: maxIter, LearningRate: learningRate, C: c}
}

func (lr *LogisticRegression) Train(features [][]float64, labels []int) error {
	if err := checkTrainingSet(features, labels); err != nil {
		return err
	}
	if lr.MaxIter <= 0 {
		lr.MaxIter = 1000
	}
	if lr.LearningRate <= 0 {
		lr.LearningRate = 0.1
	}
	if lr.C <= 0 {
		lr.C = 1
	}

	if err := lr.Scaler.Fit(features); err != nil {
		return err
	}
	scaled, err := lr.Scaler.TransformAll(features)
	if err != nil {
		return err
	}

	n := float64(len(scaled))
	width := len(scaled[0])
	weights := make([]float64, width)
	bias := 0.0
	grad := make([]float64, width)
	penalty := 1 / (lr.C * n)

	for iter := 0; iter < lr.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range scaled {
			diff := sigmoid(dot(weights, row)+bias) - float64(labels[i])
			for j, v := range row {
				grad[j] += diff * v
			}
			gradBias += diff
		}
		for j := range weights {
			weights[j] -= lr.LearningRate * (grad[j]/n + penalty*weights[j])
		}
		bias -= lr.LearningRate * gradBias / n
	}

	lr.Weights = weights
	lr.Bias = bias
	return nil
}

func (lr *LogisticRegression) PredictProbabilities(features []float64) ([2]float64, error) {
	if len(lr.Weights) == 0 {
		return [2]float64{}, ErrNotTrained
	}
	scaled, err := lr.Scaler.Transform(features)
	if err != nil {
		return [2]float64{}, err
	}
	p := sigmoid(dot(lr.Weights, scaled) + lr.Bias)
	return [2]float64{1 - p, p}, nil
}

func (lr *LogisticRegression) PredictLabel(features []float64) (int, error) {
	probs, err := lr.PredictProbabilities(features)
	if err != nil {
		return 0, err
	}
	return argmax(probs), nil
}

// FeatureImportances reports normalized absolute coefficients. Inputs are
// standardized, so magnitudes are comparable across features.
func (lr *LogisticRegression) FeatureImportances() []float64 {
	if len(lr.Weights) == 0 {
		return nil
	}
	out := make([]float64, len(lr.Weights))
	total := 0.0
	for i, w := range lr.Weights {
		out[i] = math.Abs(w)
		total += out[i]
	}
	if total == 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func argmax(probs [2]float64) int {
	if probs[1] > probs[0] {
		return 1
	}
	return 0
}

func checkTrainingSet(features [][]float64, labels []int) error {
	if len(features) == 0 || len(labels) == 0 {
		return errors.New("features or labels empty")
	}
	if len(features) != len(labels) {
		return errors.New("features and labels size mismatch")
	}
	width := len(features[0])
	if width == 0 {
		return errors.New("feature vectors are empty")
	}
	for _, row := range features {
		if len(row) != width {
			return errors.New("ragged feature matrix")
		}
	}
	for _, label := range labels {
		if label != 0 && label != 1 {
			return errors.New("labels must be 0 or 1")
		}
	}
	return nil
}
