package ml

import "testing"

func TestDecisionTreeTrainPredict(t *testing.T) {
	features := [][]float64{
		{0.1, 0.2},
		{0.2, 0.1},
		{0.9, 0.8},
		{0.8, 0.9},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(3, 1)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := model.PredictLabel([]float64{0.15, 0.15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
	probs, err := model.PredictProbabilities([]float64{0.85, 0.85})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 1 {
		t.Fatalf("expected pure phishing leaf, got %v", probs)
	}
	root := model.Nodes[0]
	if root.IsLeaf || root.FeatureIdx != 0 || root.Threshold <= 0.2 || root.Threshold >= 0.8 {
		t.Fatalf("expected split on feature 0 between 0.2 and 0.8, got %+v", root)
	}
}

func TestDecisionTreeChildIndices(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}}
	labels := []int{0, 1, 0, 1, 0, 1}

	model := NewDecisionTree(10, 1)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, node := range model.Nodes {
		if node.IsLeaf {
			continue
		}
		if node.LeftChild <= i || node.RightChild <= i || node.LeftChild >= len(model.Nodes) || node.RightChild >= len(model.Nodes) {
			t.Fatalf("node %d has invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
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
}

func TestDecisionTreeMaxDepth(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}}
	labels := []int{0, 1, 0, 1}

	model := NewDecisionTree(1, 1)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.Nodes) != 3 {
		t.Fatalf("expected root with two leaves, got %d nodes", len(model.Nodes))
	}
}

func TestDecisionTreeImportances(t *testing.T) {
	features := [][]float64{
		{0, 7},
		{0, 3},
		{1, 7},
		{1, 3},
	}
	labels := []int{0, 0, 1, 1}

	model := NewDecisionTree(5, 1)
	if err := model.Train(features, labels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	imp := model.FeatureImportances()
	if imp[0] != 1 || imp[1] != 0 {
		t.Fatalf("expected all importance on feature 0, got %v", imp)
	}
}

func TestDecisionTreeUntrained(t *testing.T) {
	model := NewDecisionTree(3, 1)
	if _, err := model.PredictLabel([]float64{1}); err != ErrNotTrained {
		t.Fatalf("expected ErrNotTrained, got %v", err)
	}
	if err := model.Train(nil, nil); err == nil {
		t.Fatalf("expected error on empty training set")
	}
	if err := model.Train([][]float64{{1}}, []int{2}); err == nil {
		t.Fatalf("expected error on invalid label")
	}
}
