// pkg/model/coercion.go
package model

import (
	"time"
)

// CoercionOperation records a single cell that was rewritten during normalization
type CoercionOperation struct {
	RunID         string    `db:"run_id" json:"runId"`
	Dataset       string    `db:"dataset" json:"dataset"`
	ColumnName    string    `db:"column_name" json:"column"`
	RowIndex      int       `db:"row_index" json:"row"`
	OriginalValue *string   `db:"original_value" json:"originalValue"` // nil when the source cell was Null
	NewValue      *string   `db:"new_value" json:"newValue"`           // nil when coerced to Null
	Operation     string    `db:"operation" json:"operation"`          // e.g. "numeric_coercion"
	Reason        string    `db:"reason" json:"reason"`                // e.g. "unparseable_number"
	CoercedAt     time.Time `db:"coerced_at" json:"coercedAt"`
}
