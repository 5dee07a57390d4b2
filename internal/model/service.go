package model

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"iris-api/internal/config"
)

var (
	// ErrNotFound reports a missing model directory or artifact file.
	ErrNotFound = errors.New("model not found")
	// ErrInvalidInput reports prediction input rejected by sanitation.
	ErrInvalidInput = errors.New("invalid input")
)

const defaultModelType = "KNeighborsClassifier"

// FeatureCount is the number of measurements in one observation.
const FeatureCount = 4

// Prediction is the batch-shaped prediction result: index i of each
// slice belongs to input row i.
type Prediction struct {
	Prediction      []string    `json:"prediction"`
	PredictionIndex []int       `json:"prediction_index"`
	Probabilities   [][]float64 `json:"probabilities,omitempty"`
	ModelVersion    string      `json:"model_version"`
}

// Info summarizes the loaded model version.
type Info struct {
	ModelName    string   `json:"model_name"`
	Version      string   `json:"version"`
	ModelType    string   `json:"model_type"`
	FeatureNames []string `json:"feature_names"`
	TargetNames  []string `json:"target_names"`
	CreatedAt    string   `json:"created_at,omitempty"`
	Accuracy     float64  `json:"accuracy,omitempty"`
}

// Service owns the loaded model artifacts and serves predictions from
// them. Load swaps versions atomically under the service lock, so
// in-flight predictions always see one consistent version.
type Service struct {
	mu        sync.RWMutex
	dir       string
	name      string
	requested string
	version   string
	artifacts *Artifacts
}

func NewService(cfg config.ModelConfig) *Service {
	return &Service{
		dir:       cfg.Dir,
		name:      cfg.Name,
		requested: cfg.Version,
	}
}

// Load reads the configured version from disk and makes it current.
func (s *Service) Load() error {
	a, resolved, err := LoadArtifacts(s.dir, s.name, s.requested)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.artifacts = a
	s.version = resolved
	s.mu.Unlock()
	return nil
}

func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.artifacts != nil
}

func (s *Service) Name() string {
	return s.name
}

// artifactsFor returns the loaded artifacts when version is empty or
// names the current version, and loads the requested version from disk
// otherwise. On-demand loads do not disturb the current version.
func (s *Service) artifactsFor(version string) (*Artifacts, string, error) {
	s.mu.RLock()
	loaded := s.artifacts
	current := s.version
	s.mu.RUnlock()
	if version == "" || version == current {
		if loaded == nil {
			return nil, "", fmt.Errorf("%w: model %q is not loaded", ErrNotFound, s.name)
		}
		return loaded, current, nil
	}
	return LoadArtifacts(s.dir, s.name, version)
}

// Predict sanitizes every row, scales it when a scaler was saved with
// the model, and classifies it. All rows are served by the same model
// version.
func (s *Service) Predict(rows [][]float64) (*Prediction, error) {
	return s.PredictVersion("", rows)
}

// PredictVersion is Predict against the named version; an empty version
// means the loaded one.
func (s *Service) PredictVersion(version string, rows [][]float64) (*Prediction, error) {
	a, resolved, err := s.artifactsFor(version)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: batch cannot be empty", ErrInvalidInput)
	}

	result := &Prediction{ModelVersion: resolved}
	for _, row := range rows {
		features, err := sanitizeFeatures(row)
		if err != nil {
			return nil, err
		}
		if a.Scaler != nil {
			features, err = a.Scaler.Transform(features)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
			}
		}
		class, err := a.Classifier.Predict(features)
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		proba, err := a.Classifier.Proba(features)
		if err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		result.Prediction = append(result.Prediction, a.targetName(class))
		result.PredictionIndex = append(result.PredictionIndex, class)
		result.Probabilities = append(result.Probabilities, proba)
	}
	return result, nil
}

// Info reports metadata about the loaded version.
func (s *Service) Info() (*Info, error) {
	return s.InfoFor("")
}

// InfoFor is Info against the named version; an empty version means
// the loaded one.
func (s *Service) InfoFor(version string) (*Info, error) {
	a, resolved, err := s.artifactsFor(version)
	if err != nil {
		return nil, err
	}
	meta := a.Metadata
	modelType := meta.ModelType
	if modelType == "" {
		modelType = defaultModelType
	}
	return &Info{
		ModelName:    s.name,
		Version:      resolved,
		ModelType:    modelType,
		FeatureNames: meta.FeatureNames,
		TargetNames:  meta.TargetNames,
		CreatedAt:    meta.CreatedAt,
		Accuracy:     meta.Accuracy,
	}, nil
}

// Versions lists the saved versions for this model.
func (s *Service) Versions() ([]string, error) {
	return ListVersions(s.dir, s.name)
}

// Retrain fits a fresh scaler and classifier on the given dataset,
// saves them as a new timestamped version, updates the latest pointer
// and reloads the service. It returns the new version and its holdout
// accuracy.
func (s *Service) Retrain(samples [][]float64, labels []int, featureNames, targetNames []string) (string, float64, error) {
	version := "v" + time.Now().Format("20060102150405")
	artifacts, accuracy, err := Train(samples, labels, featureNames, targetNames, TrainOptions{
		Version: version,
	})
	if err != nil {
		return "", 0, err
	}
	if err := SaveArtifacts(s.dir, s.name, version, artifacts); err != nil {
		return "", 0, err
	}
	if err := s.Load(); err != nil {
		return "", 0, fmt.Errorf("reload after retrain: %w", err)
	}
	return version, accuracy, nil
}

func (a *Artifacts) targetName(class int) string {
	if class >= 0 && class < len(a.Metadata.TargetNames) {
		return a.Metadata.TargetNames[class]
	}
	return fmt.Sprintf("Class %d", class)
}

// sanitizeFeatures validates one observation: exactly four finite,
// non-negative measurements, none above 30cm.
func sanitizeFeatures(row []float64) ([]float64, error) {
	if len(row) != FeatureCount {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidInput, FeatureCount, len(row))
	}
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: input contains NaN or infinity values", ErrInvalidInput)
		}
		if v < 0 {
			return nil, fmt.Errorf("%w: input contains negative values", ErrInvalidInput)
		}
		if v > 30 {
			return nil, fmt.Errorf("%w: input contains unreasonably large values (>30cm)", ErrInvalidInput)
		}
	}
	out := make([]float64, len(row))
	copy(out, row)
	return out, nil
}
