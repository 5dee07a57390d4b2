package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"iris-api/pkg/knn"
)

const (
	classifierFile = "model.json"
	scalerFile     = "scaler.json"
	metadataFile   = "metadata.json"
	latestFile     = "latest.txt"
)

// Metadata describes a saved model version.
type Metadata struct {
	ModelType    string         `json:"model_type"`
	FeatureNames []string       `json:"feature_names"`
	TargetNames  []string       `json:"target_names"`
	Params       map[string]any `json:"params,omitempty"`
	Accuracy     float64        `json:"accuracy"`
	CreatedAt    string         `json:"created_at"`
	Dataset      string         `json:"dataset,omitempty"`
	TestSize     float64        `json:"test_size,omitempty"`
	RandomState  int64          `json:"random_state,omitempty"`
}

// Artifacts bundles everything persisted for one model version:
// <dir>/<name>/<version>/{model.json,scaler.json,metadata.json}.
type Artifacts struct {
	Classifier *knn.Classifier
	Scaler     *knn.Scaler
	Metadata   Metadata
}

// ResolveVersion maps the "latest" alias to the version recorded in
// latest.txt. Any other version string is returned unchanged.
func ResolveVersion(dir, name, version string) (string, error) {
	if version != "latest" {
		return version, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, name, latestFile))
	if err != nil {
		return "", fmt.Errorf("%w: no latest version for model %q", ErrNotFound, name)
	}
	resolved := strings.TrimSpace(string(data))
	if resolved == "" {
		return "", fmt.Errorf("%w: empty latest pointer for model %q", ErrNotFound, name)
	}
	return resolved, nil
}

// LoadArtifacts reads one model version from disk. The classifier is
// required; scaler and metadata are optional, matching older versions
// that were saved without them. It returns the resolved version.
func LoadArtifacts(dir, name, version string) (*Artifacts, string, error) {
	resolved, err := ResolveVersion(dir, name, version)
	if err != nil {
		return nil, "", err
	}
	versionDir := filepath.Join(dir, name, resolved)
	if _, err := os.Stat(versionDir); err != nil {
		return nil, "", fmt.Errorf("%w: model directory %s", ErrNotFound, versionDir)
	}

	a := &Artifacts{}

	clfData, err := os.ReadFile(filepath.Join(versionDir, classifierFile))
	if err != nil {
		return nil, "", fmt.Errorf("%w: classifier file in %s", ErrNotFound, versionDir)
	}
	var clf knn.Classifier
	if err := json.Unmarshal(clfData, &clf); err != nil {
		return nil, "", fmt.Errorf("decode classifier: %w", err)
	}
	a.Classifier = &clf

	if scalerData, err := os.ReadFile(filepath.Join(versionDir, scalerFile)); err == nil {
		var sc knn.Scaler
		if err := json.Unmarshal(scalerData, &sc); err != nil {
			return nil, "", fmt.Errorf("decode scaler: %w", err)
		}
		a.Scaler = &sc
	}

	if metaData, err := os.ReadFile(filepath.Join(versionDir, metadataFile)); err == nil {
		if err := json.Unmarshal(metaData, &a.Metadata); err != nil {
			return nil, "", fmt.Errorf("decode metadata: %w", err)
		}
	}

	return a, resolved, nil
}

// SaveArtifacts writes one model version and points latest.txt at it.
func SaveArtifacts(dir, name, version string, a *Artifacts) error {
	if a == nil || a.Classifier == nil {
		return fmt.Errorf("save artifacts: classifier is required")
	}
	if version == "" {
		return fmt.Errorf("save artifacts: version is required")
	}
	versionDir := filepath.Join(dir, name, version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("create model directory: %w", err)
	}

	if err := writeJSON(filepath.Join(versionDir, classifierFile), a.Classifier); err != nil {
		return err
	}
	if a.Scaler != nil {
		if err := writeJSON(filepath.Join(versionDir, scalerFile), a.Scaler); err != nil {
			return err
		}
	}
	if err := writeJSON(filepath.Join(versionDir, metadataFile), a.Metadata); err != nil {
		return err
	}

	latest := filepath.Join(dir, name, latestFile)
	if err := os.WriteFile(latest, []byte(version), 0o644); err != nil {
		return fmt.Errorf("write latest pointer: %w", err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ListVersions returns the saved versions for a model, sorted. Dotfiles
// and the latest pointer are skipped. A missing model directory is not
// an error; it simply has no versions.
func ListVersions(dir, name string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list versions: %w", err)
	}
	versions := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		n := entry.Name()
		if strings.HasPrefix(n, ".") || n == "latest" {
			continue
		}
		versions = append(versions, n)
	}
	sort.Strings(versions)
	return versions, nil
}
