package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MeanSquaredError returns the mean of squared differences
func MeanSquaredError(yTrue, yPred []float64) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("%w: %d targets but %d predictions", ErrDimensionMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, ErrEmptyDataset
	}

	diff := make([]float64, len(yTrue))
	floats.SubTo(diff, yTrue, yPred)
	return floats.Dot(diff, diff) / float64(len(diff)), nil
}

// R2Score returns the coefficient of determination.
// It is undefined (false) for fewer than two samples. A constant target
// scores 1 when predicted exactly and 0 otherwise.
func R2Score(yTrue, yPred []float64) (float64, bool) {
	if len(yTrue) != len(yPred) || len(yTrue) < 2 {
		return 0, false
	}

	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot float64
	for i := range yTrue {
		ssRes += (yTrue[i] - yPred[i]) * (yTrue[i] - yPred[i])
		ssTot += (yTrue[i] - mean) * (yTrue[i] - mean)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 1, true
		}
		return 0, true
	}
	r2 := 1 - ssRes/ssTot
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		return 0, false
	}
	return r2, true
}
