// Package dataset bundles the Iris measurements used for training and tests.
package dataset

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

//go:embed iris.csv
var irisCSV string

var (
	FeatureNames = []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}
	TargetNames  = []string{"setosa", "versicolor", "virginica"}
)

// Iris holds the parsed dataset: one row per flower, labels as indices
// into TargetNames.
type Iris struct {
	Samples [][]float64
	Labels  []int
}

func LoadIris() (*Iris, error) {
	reader := csv.NewReader(strings.NewReader(irisCSV))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse iris csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("iris csv has no data rows")
	}

	classes := map[string]int{}
	for i, name := range TargetNames {
		classes[name] = i
	}

	data := &Iris{
		Samples: make([][]float64, 0, len(rows)-1),
		Labels:  make([]int, 0, len(rows)-1),
	}
	for i, row := range rows[1:] {
		if len(row) != len(FeatureNames)+1 {
			return nil, fmt.Errorf("iris csv row %d: expected %d columns, got %d", i+2, len(FeatureNames)+1, len(row))
		}
		sample := make([]float64, len(FeatureNames))
		for j := 0; j < len(FeatureNames); j++ {
			v, err := strconv.ParseFloat(row[j], 64)
			if err != nil {
				return nil, fmt.Errorf("iris csv row %d column %d: %w", i+2, j+1, err)
			}
			sample[j] = v
		}
		label, ok := classes[row[len(FeatureNames)]]
		if !ok {
			return nil, fmt.Errorf("iris csv row %d: unknown species %q", i+2, row[len(FeatureNames)])
		}
		data.Samples = append(data.Samples, sample)
		data.Labels = append(data.Labels, label)
	}
	return data, nil
}
