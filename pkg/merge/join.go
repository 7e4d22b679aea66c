// Package merge joins the GI registry with the economic indicator tables.
package merge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Suffixes are appended to overlapping non-key column names
type Suffixes struct {
	Left  string
	Right string
}

// DefaultSuffixes matches the conventional _x / _y naming
var DefaultSuffixes = Suffixes{Left: "_x", Right: "_y"}

// LeftJoin keeps every row of left, in order, and appends the columns of right.
//
// A left row produces one output row per matching right row (in right order),
// or a single row with Null right columns when nothing matches. Null keys
// match Null keys. Number cells compare by value, so 2015 and 2015.0 are
// equal; text cells compare as text, so "01" and "1.0" are not.
//
// A right key column with the same name as its paired left key is dropped.
// Other names present on both sides get suffixes.Left / suffixes.Right.
func LeftJoin(left, right *model.Table, leftOn, rightOn []string, suffixes Suffixes) (*model.Table, error) {
	if left == nil || right == nil {
		return nil, errors.New("join tables cannot be nil")
	}
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("join needs the same non-zero number of keys on both sides (got %d and %d)", len(leftOn), len(rightOn))
	}

	leftKeys, err := keyIndexes(left, leftOn)
	if err != nil {
		return nil, err
	}
	rightKeys, err := keyIndexes(right, rightOn)
	if err != nil {
		return nil, err
	}

	// Right key columns that coincide with the left key are not repeated
	skipRight := make(map[int]bool)
	for i := range leftOn {
		if leftOn[i] == rightOn[i] {
			skipRight[rightKeys[i]] = true
		}
	}

	rightCols := make([]int, 0, len(right.Columns))
	for i := range right.Columns {
		if !skipRight[i] {
			rightCols = append(rightCols, i)
		}
	}

	columns, err := joinedColumns(left.Columns, right.Columns, rightCols, suffixes)
	if err != nil {
		return nil, fmt.Errorf("join %s with %s: %w", left.Name, right.Name, err)
	}

	index := make(map[string][]int, len(right.Rows))
	for i, row := range right.Rows {
		k := rowKey(row, rightKeys)
		index[k] = append(index[k], i)
	}

	out := model.NewTable(left.Name, columns)
	out.Rows = make([]model.Row, 0, len(left.Rows))

	for _, lrow := range left.Rows {
		matches := index[rowKey(lrow, leftKeys)]

		if len(matches) == 0 {
			out.Rows = append(out.Rows, combine(lrow, nil, rightCols))
			continue
		}
		for _, m := range matches {
			out.Rows = append(out.Rows, combine(lrow, right.Rows[m], rightCols))
		}
	}

	return out, nil
}

func keyIndexes(t *model.Table, names []string) ([]int, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.ColumnIndex(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("join key %q not found in table %s", name, t.Name)
		}
	}
	return idx, nil
}

// joinedColumns lays out left columns then the kept right columns, suffixing overlaps
func joinedColumns(left, right []string, rightCols []int, suffixes Suffixes) ([]string, error) {
	inLeft := make(map[string]bool, len(left))
	for _, c := range left {
		inLeft[c] = true
	}
	inRight := make(map[string]bool, len(rightCols))
	for _, i := range rightCols {
		inRight[right[i]] = true
	}

	columns := make([]string, 0, len(left)+len(rightCols))
	for _, c := range left {
		if inRight[c] {
			c += suffixes.Left
		}
		columns = append(columns, c)
	}
	for _, i := range rightCols {
		c := right[i]
		if inLeft[c] {
			c += suffixes.Right
		}
		columns = append(columns, c)
	}

	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		if seen[c] {
			return nil, fmt.Errorf("duplicate column %q in join result", c)
		}
		seen[c] = true
	}
	return columns, nil
}

// rowKey builds a lookup key from the key cells
func rowKey(row model.Row, keys []int) string {
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(0x1f)
		}
		sb.WriteString(cellKey(row[k]))
	}
	return sb.String()
}

func cellKey(v model.Value) string {
	switch v.Kind {
	case model.KindNull:
		return "null"
	case model.KindNumber:
		f := v.Num
		if f == 0 {
			f = 0 // -0 joins 0
		}
		return "n:" + model.FormatNumber(f)
	default:
		return "s:" + v.Text
	}
}

func combine(lrow, rrow model.Row, rightCols []int) model.Row {
	row := make(model.Row, 0, len(lrow)+len(rightCols))
	row = append(row, lrow...)
	for _, i := range rightCols {
		if rrow == nil {
			row = append(row, model.Null())
		} else {
			row = append(row, rrow[i])
		}
	}
	return row
}
