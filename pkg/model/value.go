// pkg/model/value.go
package model

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// Value is a single table cell. The zero Value is Null.
type Value struct {
	Kind Kind
	Text string
	Num  float64
}

// Null returns the missing-value marker
func Null() Value {
	return Value{}
}

// Text wraps a string cell
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Number wraps a numeric cell
func Number(f float64) Value {
	return Value{Kind: KindNumber, Num: f}
}

// IsNull reports whether the cell is missing
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Numeric returns the cell as a finite float64.
// Text cells are trimmed and parsed; anything unparseable, NaN or infinite
// reports false.
func (v Value) Numeric() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return 0, false
		}
		return v.Num, true
	case KindText:
		return ParseNumber(v.Text)
	default:
		return 0, false
	}
}

// String renders the cell the way it is written to text outputs.
// Null renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return FormatNumber(v.Num)
	default:
		return ""
	}
}

// Equal compares two cells by kind and content
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindText:
		return v.Text == other.Text
	case KindNumber:
		return v.Num == other.Num
	default:
		return true
	}
}

// ParseNumber parses a trimmed decimal string into a finite float64
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a float in its shortest round-trip decimal form
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
