// Package knn provides a K-nearest-neighbors classifier with
// standard-score feature scaling.
package knn

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

const DefaultK = 5

// Classifier is a KNN classifier over dense float vectors. Fit stores
// the training set; Predict votes among the K nearest by Euclidean
// distance. Labels are class indices starting at zero.
type Classifier struct {
	K       int         `json:"k"`
	Samples [][]float64 `json:"samples"`
	Labels  []int       `json:"labels"`
}

func NewClassifier(k int) (*Classifier, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	return &Classifier{K: k}, nil
}

func (c *Classifier) Fit(samples [][]float64, labels []int) error {
	if len(samples) == 0 {
		return fmt.Errorf("fit: no samples")
	}
	if len(samples) != len(labels) {
		return fmt.Errorf("fit: %d samples but %d labels", len(samples), len(labels))
	}
	if c.K > len(samples) {
		return fmt.Errorf("fit: k=%d exceeds %d samples", c.K, len(samples))
	}
	dims := len(samples[0])
	for _, sample := range samples {
		if len(sample) != dims {
			return fmt.Errorf("fit: inconsistent dimensions %d and %d", dims, len(sample))
		}
	}
	for _, label := range labels {
		if label < 0 {
			return fmt.Errorf("fit: negative label %d", label)
		}
	}
	c.Samples = samples
	c.Labels = labels
	return nil
}

// Predict returns the majority class among the K nearest neighbors.
// Distance ties keep training order; vote ties pick the lowest class.
func (c *Classifier) Predict(sample []float64) (int, error) {
	votes, err := c.neighborVotes(sample)
	if err != nil {
		return 0, err
	}
	best := 0
	for class, count := range votes {
		if count > votes[best] {
			best = class
		}
	}
	return best, nil
}

// Proba returns per-class vote shares among the K nearest neighbors.
func (c *Classifier) Proba(sample []float64) ([]float64, error) {
	votes, err := c.neighborVotes(sample)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(votes))
	for class, count := range votes {
		out[class] = float64(count) / float64(c.K)
	}
	return out, nil
}

// Classes reports the number of known classes (highest label + 1).
func (c *Classifier) Classes() int {
	max := -1
	for _, label := range c.Labels {
		if label > max {
			max = label
		}
	}
	return max + 1
}

func (c *Classifier) neighborVotes(sample []float64) ([]int, error) {
	if len(c.Samples) == 0 {
		return nil, fmt.Errorf("predict: classifier is not fitted")
	}
	if len(sample) != len(c.Samples[0]) {
		return nil, fmt.Errorf("predict: expected %d features, got %d", len(c.Samples[0]), len(sample))
	}

	type neighbor struct {
		index    int
		distance float64
	}
	neighbors := make([]neighbor, len(c.Samples))
	for i, train := range c.Samples {
		neighbors[i] = neighbor{index: i, distance: euclidean(sample, train)}
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].distance < neighbors[b].distance
	})

	votes := make([]int, c.Classes())
	for _, n := range neighbors[:c.K] {
		votes[c.Labels[n.index]]++
	}
	return votes, nil
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// TrainTestSplit shuffles deterministically by seed and splits off
// round(testRatio * n) samples for testing.
func TrainTestSplit(samples [][]float64, labels []int, testRatio float64, seed int64) ([][]float64, [][]float64, []int, []int) {
	n := len(samples)
	perm := rand.New(rand.NewSource(seed)).Perm(n)

	testN := int(math.Round(testRatio * float64(n)))
	if testN > n {
		testN = n
	}
	trainN := n - testN

	trainX := make([][]float64, 0, trainN)
	trainY := make([]int, 0, trainN)
	testX := make([][]float64, 0, testN)
	testY := make([]int, 0, testN)
	for i, p := range perm {
		if i < trainN {
			trainX = append(trainX, samples[p])
			trainY = append(trainY, labels[p])
		} else {
			testX = append(testX, samples[p])
			testY = append(testY, labels[p])
		}
	}
	return trainX, testX, trainY, testY
}

// Accuracy is the fraction of predictions matching the expected labels.
func Accuracy(predicted, expected []int) float64 {
	if len(predicted) == 0 || len(predicted) != len(expected) {
		return 0
	}
	correct := 0
	for i := range predicted {
		if predicted[i] == expected[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predicted))
}
