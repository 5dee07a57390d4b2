package model

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"iris-api/pkg/knn"
)

func sampleArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	samples := [][]float64{
		{1, 1, 1, 1},
		{1.1, 1, 1, 1},
		{0.9, 1, 1, 1},
		{5, 5, 5, 5},
		{5.1, 5, 5, 5},
		{4.9, 5, 5, 5},
	}
	labels := []int{0, 0, 0, 1, 1, 1}

	scaler, err := knn.FitScaler(samples)
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	scaled, err := scaler.TransformAll(samples)
	if err != nil {
		t.Fatalf("scale samples: %v", err)
	}
	clf, err := knn.NewClassifier(1)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	if err := clf.Fit(scaled, labels); err != nil {
		t.Fatalf("fit classifier: %v", err)
	}
	return &Artifacts{
		Classifier: clf,
		Scaler:     scaler,
		Metadata: Metadata{
			ModelType:    "KNeighborsClassifier",
			FeatureNames: []string{"sepal_length", "sepal_width", "petal_length", "petal_width"},
			TargetNames:  []string{"setosa", "versicolor"},
			Accuracy:     1.0,
			CreatedAt:    "2024-01-01T00:00:00Z",
		},
	}
}

func TestSaveAndLoadArtifacts(t *testing.T) {
	dir := t.TempDir()
	if err := SaveArtifacts(dir, "iris", "v1", sampleArtifacts(t)); err != nil {
		t.Fatalf("save artifacts: %v", err)
	}

	loaded, resolved, err := LoadArtifacts(dir, "iris", "v1")
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	if resolved != "v1" {
		t.Fatalf("expected resolved version v1, got %s", resolved)
	}
	if loaded.Classifier == nil || loaded.Classifier.K != 1 {
		t.Fatalf("unexpected classifier: %+v", loaded.Classifier)
	}
	if len(loaded.Classifier.Samples) != 6 {
		t.Fatalf("expected 6 training samples, got %d", len(loaded.Classifier.Samples))
	}
	if loaded.Scaler == nil || len(loaded.Scaler.Means) != 4 {
		t.Fatalf("unexpected scaler: %+v", loaded.Scaler)
	}
	if loaded.Metadata.TargetNames[0] != "setosa" {
		t.Fatalf("unexpected metadata: %+v", loaded.Metadata)
	}
}

func TestLoadArtifactsResolvesLatest(t *testing.T) {
	dir := t.TempDir()
	if err := SaveArtifacts(dir, "iris", "v1", sampleArtifacts(t)); err != nil {
		t.Fatalf("save v1: %v", err)
	}
	if err := SaveArtifacts(dir, "iris", "v2", sampleArtifacts(t)); err != nil {
		t.Fatalf("save v2: %v", err)
	}

	_, resolved, err := LoadArtifacts(dir, "iris", "latest")
	if err != nil {
		t.Fatalf("load latest: %v", err)
	}
	if resolved != "v2" {
		t.Fatalf("expected latest to resolve to v2, got %s", resolved)
	}
}

func TestLoadArtifactsMissingModel(t *testing.T) {
	_, _, err := LoadArtifacts(t.TempDir(), "iris", "v9")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveVersionMissingPointer(t *testing.T) {
	_, err := ResolveVersion(t.TempDir(), "iris", "latest")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListVersions(t *testing.T) {
	dir := t.TempDir()
	for _, v := range []string{"v2", "v1", ".hidden", "latest"} {
		if err := os.MkdirAll(filepath.Join(dir, "iris", v), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", v, err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "iris", "latest.txt"), []byte("v2"), 0o644); err != nil {
		t.Fatalf("write latest.txt: %v", err)
	}

	versions, err := ListVersions(dir, "iris")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 || versions[0] != "v1" || versions[1] != "v2" {
		t.Fatalf("expected [v1 v2], got %v", versions)
	}
}

func TestListVersionsMissingDir(t *testing.T) {
	versions, err := ListVersions(t.TempDir(), "iris")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("expected no versions, got %v", versions)
	}
}
