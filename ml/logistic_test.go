package ml

import (
	"math"
	"testing"
)

func TestLogisticRegressionSeparable(t *testing.T) {
	features := [][]float64{
		{1, 10}, {2, 11}, {1.5, 9},
		{8, 10}, {9, 12}, {7.5, 11},
	}
	labels := []int{0, 0, 0, 1, 1, 1}

	model := NewLogisticRegression(1000, 0.1, 1.0)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, row := range features {
		label, err := model.PredictLabel(row)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if label != labels[i] {
			t.Fatalf("row %d: expected %d, got %d", i, labels[i], label)
		}
	}
	probs, err := model.PredictProbabilities([]float64{9, 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(probs[0]+probs[1]-1) > 1e-9 {
		t.Fatalf("probabilities do not sum to 1: %v", probs)
	}
	imp := model.FeatureImportances()
	if imp[0] <= imp[1] {
		t.Fatalf("expected feature 0 to dominate, got %v", imp)
	}
}

func TestLogisticRegressionErrors(t *testing.T) {
	model := NewLogisticRegression(10, 0.1, 1)
	if _, err := model.PredictProbabilities([]float64{1}); err != ErrNotTrained {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
	if err := model.Train([][]float64{{1}, {2}}, []int{0}); err == nil {
		t.Fatalf("expected size mismatch error")
	}
	if err := model.Train([][]float64{{1}, {2}}, []int{0, 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := model.PredictLabel([]float64{1, 2}); err == nil {
		t.Fatalf("expected width mismatch error")
	}
}

func TestSigmoidStable(t *testing.T) {
	if v := sigmoid(-1000); v != 0 || math.IsNaN(v) {
		t.Fatalf("sigmoid(-1000) = %v", v)
	}
	if v := sigmoid(1000); v != 1 {
		t.Fatalf("sigmoid(1000) = %v", v)
	}
	if v := sigmoid(0); v != 0.5 {
		t.Fatalf("sigmoid(0) = %v", v)
	}
}
