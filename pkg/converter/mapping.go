// pkg/converter/mapping.go
package converter

import (
	"math"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// maxExactInteger is the largest magnitude a float64 holds without losing integer precision
const maxExactInteger = 1 << 53

// MapKindToSQL returns the SQL type for an inferred column
func (c *TypeConverter) MapKindToSQL(col model.Column) string {
	integer := col.Kind == model.KindNumber && col.Integral && c.config.PreferIntegers

	switch c.config.Dialect {
	case DialectSQLite:
		switch {
		case integer:
			return "INTEGER"
		case col.Kind == model.KindNumber:
			return "REAL"
		default:
			return "TEXT"
		}
	default:
		switch {
		case integer:
			return "BIGINT"
		case col.Kind == model.KindNumber:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	}
}

// inferColumn classifies one column: numeric when every present cell reads as a number
func inferColumn(t *model.Table, idx int) model.Column {
	col := model.Column{Kind: model.KindNull, Integral: true}

	for _, row := range t.Rows {
		v := row[idx]
		if v.IsNull() {
			col.Nullable = true
			continue
		}

		f, ok := v.Numeric()
		if !ok {
			col.Kind = model.KindText
			col.Integral = false
			continue
		}

		if col.Kind == model.KindNull {
			col.Kind = model.KindNumber
		}
		if !isIntegral(f) {
			col.Integral = false
		}
	}

	if col.Kind != model.KindNumber {
		col.Integral = false
	}
	if col.Kind == model.KindNull {
		// An all-missing column holds nothing but NULLs
		col.Nullable = true
	}

	return col
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) <= maxExactInteger
}
