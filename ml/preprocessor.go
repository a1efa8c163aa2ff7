package ml

import (
	"errors"
	"fmt"
	"math"
)

// Standardizer rescales every column to zero mean and unit variance using
// statistics from the training matrix. Constant columns keep a scale of 1.
type Standardizer struct {
	Means  []float64 `json:"means"`
	Scales []float64 `json:"scales"`
}

func (s *Standardizer) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}
	width := len(features[0])
	means := make([]float64, width)
	for _, row := range features {
		if len(row) != width {
			return fmt.Errorf("ragged feature matrix: expected %d columns, got %d", width, len(row))
		}
		for j, v := range row {
			means[j] += v
		}
	}
	n := float64(len(features))
	for j := range means {
		means[j] /= n
	}

	scales := make([]float64, width)
	for _, row := range features {
		for j, v := range row {
			d := v - means[j]
			scales[j] += d * d
		}
	}
	for j := range scales {
		scales[j] = math.Sqrt(scales[j] / n)
		if scales[j] == 0 {
			scales[j] = 1
		}
	}

	s.Means = means
	s.Scales = scales
	return nil
}

func (s *Standardizer) Transform(features []float64) ([]float64, error) {
	if len(s.Means) == 0 {
		return nil, errors.New("standardizer not fitted")
	}
	if len(features) != len(s.Means) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Means), len(features))
	}
	out := make([]float64, len(features))
	for j, v := range features {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

func (s *Standardizer) TransformAll(features [][]float64) ([][]float64, error) {
	out := make([][]float64, len(features))
	for i, row := range features {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
