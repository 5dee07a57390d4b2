package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"iris-api/internal/dataset"
	"iris-api/internal/model"
)

func main() {
	dir := flag.String("models-dir", "models", "directory for model artifacts")
	name := flag.String("name", "iris", "model name")
	version := flag.String("version", "v1", "version to write")
	k := flag.Int("k", 0, "neighbor count (0 uses the default)")
	testRatio := flag.Float64("test-ratio", 0, "holdout ratio (0 uses the default)")
	seed := flag.Int64("seed", 0, "split seed (0 uses the default)")
	flag.Parse()

	iris, err := dataset.LoadIris()
	if err != nil {
		fmt.Println("load dataset:", err)
		os.Exit(1)
	}

	artifacts, accuracy, err := model.Train(iris.Samples, iris.Labels, dataset.FeatureNames, dataset.TargetNames, model.TrainOptions{
		K:         *k,
		TestRatio: *testRatio,
		Seed:      *seed,
		Version:   *version,
	})
	if err != nil {
		fmt.Println("train:", err)
		os.Exit(1)
	}

	if err := model.SaveArtifacts(*dir, *name, *version, artifacts); err != nil {
		fmt.Println("save artifacts:", err)
		os.Exit(1)
	}

	fmt.Println("trained model:")
	fmt.Println("version:", *version)
	fmt.Printf("accuracy: %.4f\n", accuracy)
	fmt.Println("artifacts:", filepath.Join(*dir, *name, *version))
}
