// pkg/converter/values.go
package converter

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// ConvertValue converts a cell into a driver argument for the given column
func (c *TypeConverter) ConvertValue(v model.Value, col model.Column) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}

	switch col.Kind {
	case model.KindNumber:
		f, ok := v.Numeric()
		if !ok {
			return nil, fmt.Errorf("column %s: cannot convert %q to a number", col.Name, v.String())
		}
		if col.Integral && c.config.PreferIntegers {
			return int64(f), nil
		}
		return f, nil
	default:
		return v.String(), nil
	}
}

// ConvertRows converts every row of t into driver arguments following metadata
func (c *TypeConverter) ConvertRows(t *model.Table, metadata *model.TableMetadata) ([][]interface{}, error) {
	if len(metadata.Columns) != len(t.Columns) {
		return nil, fmt.Errorf("metadata has %d columns, table %s has %d", len(metadata.Columns), t.Name, len(t.Columns))
	}

	out := make([][]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		args := make([]interface{}, len(row))
		for j, v := range row {
			arg, err := c.ConvertValue(v, metadata.Columns[j])
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			args[j] = arg
		}
		out[i] = args
	}
	return out, nil
}

// FromDriverValue converts a value scanned from a database driver into a cell
func (c *TypeConverter) FromDriverValue(value interface{}) model.Value {
	switch v := value.(type) {
	case nil:
		return model.Null()
	case string:
		if v == "" && c.config.EmptyStringAsNull {
			return model.Null()
		}
		return model.Text(v)
	case []byte:
		if len(v) == 0 && c.config.EmptyStringAsNull {
			return model.Null()
		}
		return model.Text(string(v))
	case int:
		return model.Number(float64(v))
	case int8:
		return model.Number(float64(v))
	case int16:
		return model.Number(float64(v))
	case int32:
		return model.Number(float64(v))
	case int64:
		return model.Number(float64(v))
	case uint:
		return model.Number(float64(v))
	case uint8:
		return model.Number(float64(v))
	case uint16:
		return model.Number(float64(v))
	case uint32:
		return model.Number(float64(v))
	case uint64:
		return model.Number(float64(v))
	case float32:
		return fromFloat(float64(v))
	case float64:
		return fromFloat(v)
	case bool:
		return model.Text(strconv.FormatBool(v))
	case time.Time:
		return model.Text(v.Format(time.RFC3339))
	default:
		return model.Text(fmt.Sprintf("%v", v))
	}
}

func fromFloat(f float64) model.Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return model.Null()
	}
	return model.Number(f)
}
