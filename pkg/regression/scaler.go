package regression

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler centres each column on its mean and divides by its
// population standard deviation. Constant columns are only centred.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fit learns per-column means and scales from x
func (s *StandardScaler) Fit(x mat.Matrix) {
	rows, cols := x.Dims()
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std < 10*epsilon || math.IsNaN(std) {
			std = 1
		}
		s.Scale[j] = std
	}
}

// Transform returns (x - mean) / scale
func (s *StandardScaler) Transform(x mat.Matrix) (*mat.Dense, error) {
	return s.apply(x, func(v, mean, scale float64) float64 { return (v - mean) / scale })
}

// InverseTransform returns x * scale + mean
func (s *StandardScaler) InverseTransform(x mat.Matrix) (*mat.Dense, error) {
	return s.apply(x, func(v, mean, scale float64) float64 { return v*scale + mean })
}

// FitTransform fits on x and returns it transformed
func (s *StandardScaler) FitTransform(x mat.Matrix) (*mat.Dense, error) {
	s.Fit(x)
	return s.Transform(x)
}

func (s *StandardScaler) apply(x mat.Matrix, f func(v, mean, scale float64) float64) (*mat.Dense, error) {
	if s.Mean == nil {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(s.Mean) {
		return nil, fmt.Errorf("%w: scaler fitted on %d columns, got %d", ErrDimensionMismatch, len(s.Mean), cols)
	}

	out := mat.NewDense(rows, cols, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return f(v, s.Mean[j], s.Scale[j])
	}, x)
	return out, nil
}
