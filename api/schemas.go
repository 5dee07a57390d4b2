package api

import (
	"errors"
	"fmt"
	"math"
)

// IrisFeatures is the canonical prediction input: one flower, four
// measurements in centimeters. Range bounds are enforced by the binding
// tags, plausibility rules by Validate.
type IrisFeatures struct {
	SepalLength float64 `json:"sepal_length" binding:"required,gt=0,lte=30"`
	SepalWidth  float64 `json:"sepal_width" binding:"required,gt=0,lte=30"`
	PetalLength float64 `json:"petal_length" binding:"required,gt=0,lte=30"`
	PetalWidth  float64 `json:"petal_width" binding:"required,gt=0,lte=30"`
}

// Validate rejects measurements that pass the range checks but cannot
// describe a real iris flower.
func (f IrisFeatures) Validate() error {
	if f.SepalLength < f.PetalLength {
		return errors.New("Sepal length is typically greater than petal length for iris flowers")
	}
	if f.PetalLength < 0.5 && f.PetalWidth > 0.5 {
		return errors.New("Unusual combination: very short petals are not typically wide")
	}
	if f.SepalLength > 10 {
		return errors.New("Unusually large sepal length (>10cm). Verify your measurement.")
	}
	return nil
}

func (f IrisFeatures) row() []float64 {
	return []float64{f.SepalLength, f.SepalWidth, f.PetalLength, f.PetalWidth}
}

// IrisFeaturesArray is the positional input format: the four
// measurements as a bare array in sepal length, sepal width, petal
// length, petal width order.
type IrisFeaturesArray struct {
	Features []float64 `json:"features" binding:"required"`
}

// Validate applies the same bounds and plausibility rules as the named
// format, with positional error messages.
func (a IrisFeaturesArray) Validate() error {
	if len(a.Features) != 4 {
		return errors.New("Features array must contain exactly 4 values")
	}
	for i, v := range a.Features {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("Feature %d must be a valid number (not NaN or infinity)", i+1)
		}
		if v <= 0 || v > 30 {
			return fmt.Errorf("Feature %d must be between 0 and 30 cm", i+1)
		}
	}
	return a.toFeatures().Validate()
}

func (a IrisFeaturesArray) toFeatures() IrisFeatures {
	return IrisFeatures{
		SepalLength: a.Features[0],
		SepalWidth:  a.Features[1],
		PetalLength: a.Features[2],
		PetalWidth:  a.Features[3],
	}
}

// IrisFeaturesV2 extends the canonical input with the v2-only request
// options.
type IrisFeaturesV2 struct {
	IrisFeatures
	IncludeImportance bool `json:"include_importance"`
}
