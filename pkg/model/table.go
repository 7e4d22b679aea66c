// pkg/model/table.go
package model

import (
	"fmt"
)

// Row is one record of a Table, aligned with Table.Columns
type Row []Value

// Table is an in-memory tabular dataset with ordered, named columns
type Table struct {
	Name    string
	Columns []string
	Rows    []Row
}

// NewTable creates an empty table with the given columns
func NewTable(name string, columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{
		Name:    name,
		Columns: cols,
		Rows:    make([]Row, 0),
	}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a column or -1 if absent
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns a copy of all cells of the named column
func (t *Table) Column(name string) ([]Value, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in table %s", name, t.Name)
	}
	out := make([]Value, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// AppendRow adds a row after checking its width
func (t *Table) AppendRow(row Row) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table %s has %d columns", len(row), t.Name, len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	out := NewTable(t.Name, t.Columns)
	out.Rows = make([]Row, len(t.Rows))
	for i, row := range t.Rows {
		r := make(Row, len(row))
		copy(r, row)
		out.Rows[i] = r
	}
	return out
}

// DropColumns removes the named columns in place.
// With ignoreMissing set, names that are not present are skipped;
// otherwise a missing name is an error and the table is left untouched.
func (t *Table) DropColumns(names []string, ignoreMissing bool) error {
	drop := make(map[int]bool, len(names))
	for _, name := range names {
		idx := t.ColumnIndex(name)
		if idx < 0 {
			if ignoreMissing {
				continue
			}
			return fmt.Errorf("cannot drop column %q: not found in table %s", name, t.Name)
		}
		drop[idx] = true
	}
	if len(drop) == 0 {
		return nil
	}

	keep := make([]int, 0, len(t.Columns)-len(drop))
	for i := range t.Columns {
		if !drop[i] {
			keep = append(keep, i)
		}
	}

	cols := make([]string, len(keep))
	for j, i := range keep {
		cols[j] = t.Columns[i]
	}
	for r, row := range t.Rows {
		nr := make(Row, len(keep))
		for j, i := range keep {
			nr[j] = row[i]
		}
		t.Rows[r] = nr
	}
	t.Columns = cols
	return nil
}

// Bundle groups the four input datasets of a merge run
type Bundle struct {
	Registry       *Table
	GDPPerCapita   *Table
	GVABasicPrices *Table
	GVABySector    *Table
}

// Indicators returns the economic indicator tables in join order
func (b *Bundle) Indicators() []*Table {
	return []*Table{b.GDPPerCapita, b.GVABasicPrices, b.GVABySector}
}
