package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// epsilon is the float64 machine epsilon
const epsilon = 2.220446049250313e-16

// LinearRegression is ordinary least squares with an intercept
type LinearRegression struct {
	Coef      []float64
	Intercept float64
	Rank      int
	fitted    bool
}

// Fit estimates coefficients by centring x and y and solving the
// minimum-norm least-squares problem through an SVD, so collinear or
// constant features do not make the fit fail.
func (m *LinearRegression) Fit(x mat.Matrix, y []float64) error {
	rows, cols := x.Dims()
	if rows != len(y) {
		return fmt.Errorf("%w: %d rows but %d targets", ErrDimensionMismatch, rows, len(y))
	}
	if rows == 0 {
		return ErrEmptyDataset
	}
	if cols == 0 {
		return ErrNoFeatures
	}

	xMean := make([]float64, cols)
	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, x)
		xMean[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	xc := mat.NewDense(rows, cols, nil)
	xc.Apply(func(i, j int, v float64) float64 { return v - xMean[j] }, x)

	yc := make([]float64, rows)
	copy(yc, y)
	floats.AddConst(-yMean, yc)

	var svd mat.SVD
	if ok := svd.Factorize(xc, mat.SVDThin); !ok {
		return errors.New("SVD factorization failed")
	}

	values := svd.Values(nil)
	rank := 0
	if len(values) > 0 {
		tol := epsilon * float64(max(rows, cols)) * values[0]
		for _, s := range values {
			if s > tol {
				rank++
			}
		}
	}

	coef := make([]float64, cols)
	if rank > 0 {
		var sol mat.VecDense
		svd.SolveVecTo(&sol, mat.NewVecDense(rows, yc), rank)
		for j := range coef {
			coef[j] = sol.AtVec(j)
		}
	}

	m.Coef = coef
	m.Intercept = yMean - floats.Dot(xMean, coef)
	m.Rank = rank
	m.fitted = true
	return nil
}

// Predict returns x·coef + intercept for every row of x
func (m *LinearRegression) Predict(x mat.Matrix) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != len(m.Coef) {
		return nil, fmt.Errorf("%w: model has %d coefficients, got %d columns", ErrDimensionMismatch, len(m.Coef), cols)
	}

	var out mat.VecDense
	out.MulVec(x, mat.NewVecDense(cols, m.Coef))

	pred := make([]float64, rows)
	for i := range pred {
		pred[i] = out.AtVec(i) + m.Intercept
	}
	return pred, nil
}
