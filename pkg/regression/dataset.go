// Package regression fits and evaluates an ordinary least-squares model of a
// target column against every other column of a table.
package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Dataset is a numeric feature matrix and target vector taken from a table
type Dataset struct {
	Features []string
	Target   string
	X        [][]float64 // one slice per row, aligned with Features
	Y        []float64
}

// NewDataset splits t into features (every column except target, in order)
// and the target vector. Every cell must be a present number.
func NewDataset(t *model.Table, target string) (*Dataset, error) {
	targetIdx := t.ColumnIndex(target)
	if targetIdx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrTargetNotFound, target)
	}
	if t.Len() == 0 {
		return nil, ErrEmptyDataset
	}

	featureIdx := make([]int, 0, len(t.Columns)-1)
	features := make([]string, 0, len(t.Columns)-1)
	for i, c := range t.Columns {
		if i != targetIdx {
			featureIdx = append(featureIdx, i)
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}

	ds := &Dataset{
		Features: features,
		Target:   target,
		X:        make([][]float64, t.Len()),
		Y:        make([]float64, t.Len()),
	}

	for r, row := range t.Rows {
		y, err := numericCell(row[targetIdx], ErrNonNumericTarget)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: %w", r, target, err)
		}
		ds.Y[r] = y

		x := make([]float64, len(featureIdx))
		for j, idx := range featureIdx {
			v, err := numericCell(row[idx], ErrNonNumericFeature)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %q: %w", r, t.Columns[idx], err)
			}
			x[j] = v
		}
		ds.X[r] = x
	}

	return ds, nil
}

// Len returns the number of samples
func (d *Dataset) Len() int {
	return len(d.Y)
}

func numericCell(v model.Value, nonNumeric error) (float64, error) {
	if v.IsNull() {
		return 0, ErrMissingValue
	}
	f, ok := v.Numeric()
	if !ok {
		return 0, fmt.Errorf("%w: %q", nonNumeric, v.String())
	}
	return f, nil
}

// rowsMatrix gathers the selected rows of x into a dense matrix
func rowsMatrix(x [][]float64, rows []int, cols int) *mat.Dense {
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		data = append(data, x[r]...)
	}
	return mat.NewDense(len(rows), cols, data)
}

func pick(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
