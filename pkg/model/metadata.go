// pkg/model/metadata.go
package model

import "strings"

// TableMetadata describes how a Table is laid out in a SQL sink
type TableMetadata struct {
	Schema  string   // Schema name (empty for SQLite)
	Table   string   // Table name
	Columns []Column // Column definitions in table order
}

// Column represents metadata about an output column
type Column struct {
	Name     string // Column name as it appears in the Table
	Kind     Kind   // Inferred cell kind (Null means all cells were missing)
	Integral bool   // All numeric cells are whole numbers
	SQLType  string // Mapped SQL type for the target dialect
	Nullable bool   // Whether any cell was missing
}

// GetColumnByName returns a column by name (case-insensitive)
// Returns nil if column not found
func (tm *TableMetadata) GetColumnByName(name string) *Column {
	normalizedName := strings.ToLower(name)
	for i, col := range tm.Columns {
		if strings.ToLower(col.Name) == normalizedName {
			return &tm.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names in order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}
