// pkg/cleaner/operations.go
package cleaner

import (
	"strings"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Coercion operation and reason names used in audit records
const (
	OperationNumericCoercion = "numeric_coercion"

	ReasonUnparseable = "unparseable_number"
	ReasonNonFinite   = "non_finite_number"
)

// NormalizeRegionString lower-cases and trims a region name
func NormalizeRegionString(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeRegion applies NormalizeRegionString to a cell. Null stays Null.
func NormalizeRegion(v model.Value) model.Value {
	if v.IsNull() {
		return v
	}
	return model.Text(NormalizeRegionString(v.String()))
}

// CoerceNumeric reads a cell as a number. It never fails: anything that is
// not a finite number reports false.
func CoerceNumeric(v model.Value) (float64, bool) {
	return v.Numeric()
}

// coerceNumericCell converts a cell to a Number or Null.
// Returns an operation when a present value had to be discarded.
func coerceNumericCell(v model.Value) (model.Value, *model.CoercionOperation) {
	if v.IsNull() {
		return v, nil
	}

	if f, ok := CoerceNumeric(v); ok {
		return model.Number(f), nil
	}

	reason := ReasonUnparseable
	if v.Kind == model.KindNumber {
		reason = ReasonNonFinite
	}

	original := v.String()
	return model.Null(), &model.CoercionOperation{
		OriginalValue: &original,
		NewValue:      nil,
		Operation:     OperationNumericCoercion,
		Reason:        reason,
	}
}
