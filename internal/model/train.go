package model

import (
	"fmt"
	"time"

	"iris-api/pkg/knn"
)

// TrainOptions control one training run. Zero values fall back to the
// course defaults: k=5 neighbors, a 70/30 split and seed 42.
type TrainOptions struct {
	K         int
	TestRatio float64
	Seed      int64
	Dataset   string
	Version   string
}

func (o *TrainOptions) applyDefaults() {
	if o.K <= 0 {
		o.K = knn.DefaultK
	}
	if o.TestRatio <= 0 || o.TestRatio >= 1 {
		o.TestRatio = 0.3
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.Dataset == "" {
		o.Dataset = "iris"
	}
}

// Train splits the dataset, fits a scaler on the training rows, trains
// a KNN classifier on the scaled rows and evaluates it on the scaled
// holdout. It returns the artifacts ready for SaveArtifacts together
// with the holdout accuracy.
func Train(samples [][]float64, labels []int, featureNames, targetNames []string, opts TrainOptions) (*Artifacts, float64, error) {
	opts.applyDefaults()

	trainX, testX, trainY, testY := knn.TrainTestSplit(samples, labels, opts.TestRatio, opts.Seed)
	if len(trainX) == 0 || len(testX) == 0 {
		return nil, 0, fmt.Errorf("train: dataset too small for a %.0f%% holdout", opts.TestRatio*100)
	}

	scaler, err := knn.FitScaler(trainX)
	if err != nil {
		return nil, 0, fmt.Errorf("fit scaler: %w", err)
	}
	trainScaled, err := scaler.TransformAll(trainX)
	if err != nil {
		return nil, 0, fmt.Errorf("scale training rows: %w", err)
	}
	testScaled, err := scaler.TransformAll(testX)
	if err != nil {
		return nil, 0, fmt.Errorf("scale holdout rows: %w", err)
	}

	clf, err := knn.NewClassifier(opts.K)
	if err != nil {
		return nil, 0, err
	}
	if err := clf.Fit(trainScaled, trainY); err != nil {
		return nil, 0, fmt.Errorf("fit classifier: %w", err)
	}

	predicted := make([]int, len(testScaled))
	for i, row := range testScaled {
		class, err := clf.Predict(row)
		if err != nil {
			return nil, 0, fmt.Errorf("evaluate holdout: %w", err)
		}
		predicted[i] = class
	}
	accuracy := knn.Accuracy(predicted, testY)

	artifacts := &Artifacts{
		Classifier: clf,
		Scaler:     scaler,
		Metadata: Metadata{
			ModelType:    defaultModelType,
			FeatureNames: featureNames,
			TargetNames:  targetNames,
			Params:       map[string]any{"n_neighbors": opts.K},
			Accuracy:     accuracy,
			CreatedAt:    time.Now().Format(time.RFC3339),
			Dataset:      opts.Dataset,
			TestSize:     opts.TestRatio,
			RandomState:  opts.Seed,
		},
	}
	return artifacts, accuracy, nil
}
