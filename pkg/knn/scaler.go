package knn

import (
	"fmt"
	"math"
)

// Scaler standardizes features to zero mean and unit variance using the
// statistics of the samples it was fitted on.
type Scaler struct {
	Means []float64 `json:"means"`
	Stds  []float64 `json:"stds"`
}

func FitScaler(samples [][]float64) (*Scaler, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("fit scaler: no samples")
	}
	dims := len(samples[0])
	if dims == 0 {
		return nil, fmt.Errorf("fit scaler: empty feature vector")
	}

	means := make([]float64, dims)
	for _, sample := range samples {
		if len(sample) != dims {
			return nil, fmt.Errorf("fit scaler: inconsistent dimensions %d and %d", dims, len(sample))
		}
		for i, v := range sample {
			means[i] += v
		}
	}
	n := float64(len(samples))
	for i := range means {
		means[i] /= n
	}

	stds := make([]float64, dims)
	for _, sample := range samples {
		for i, v := range sample {
			d := v - means[i]
			stds[i] += d * d
		}
	}
	for i := range stds {
		stds[i] = math.Sqrt(stds[i] / n)
		if stds[i] == 0 {
			stds[i] = 1
		}
	}

	return &Scaler{Means: means, Stds: stds}, nil
}

func (s *Scaler) Transform(sample []float64) ([]float64, error) {
	if len(sample) != len(s.Means) {
		return nil, fmt.Errorf("transform: expected %d features, got %d", len(s.Means), len(sample))
	}
	out := make([]float64, len(sample))
	for i, v := range sample {
		out[i] = (v - s.Means[i]) / s.Stds[i]
	}
	return out, nil
}

func (s *Scaler) TransformAll(samples [][]float64) ([][]float64, error) {
	out := make([][]float64, 0, len(samples))
	for _, sample := range samples {
		scaled, err := s.Transform(sample)
		if err != nil {
			return nil, err
		}
		out = append(out, scaled)
	}
	return out, nil
}
