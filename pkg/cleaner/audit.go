// pkg/cleaner/audit.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

const auditBatchSize = 500

// AuditRecorder persists coercion operations to a PostgreSQL tracking table
type AuditRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
	table  string
}

// NewAuditRecorder creates a recorder writing to schema.table and ensures the table exists
func NewAuditRecorder(ctx context.Context, db *sqlx.DB, schema, table string, logger *zap.Logger) (*AuditRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	r := &AuditRecorder{
		db:     db,
		logger: logger,
		table:  pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table),
	}

	if err := r.setupAuditTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup audit table: %w", err)
	}

	return r, nil
}

// setupAuditTable ensures the coercion tracking table exists
func (r *AuditRecorder) setupAuditTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, auditTableDDL(r.table))
	if err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured coercion audit table exists", zap.String("table", r.table))
	return nil
}

// Record batch inserts coercion operations in a single transaction
func (r *AuditRecorder) Record(ctx context.Context, operations []model.CoercionOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	query := auditInsertSQL(r.table)
	for start := 0; start < len(operations); start += auditBatchSize {
		end := start + auditBatchSize
		if end > len(operations) {
			end = len(operations)
		}
		if _, err = tx.NamedExecContext(ctx, query, operations[start:end]); err != nil {
			return fmt.Errorf("failed to insert coercion operations: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded coercion operations", zap.Int("count", len(operations)))
	return nil
}

func auditTableDDL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			dataset TEXT NOT NULL,
			column_name TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			original_value TEXT,
			new_value TEXT,
			operation TEXT NOT NULL,
			reason TEXT NOT NULL,
			coerced_at TIMESTAMP WITH TIME ZONE NOT NULL
		)
	`, table)
}

func auditInsertSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s
		(run_id, dataset, column_name, row_index, original_value, new_value, operation, reason, coerced_at)
		VALUES (:run_id, :dataset, :column_name, :row_index, :original_value, :new_value, :operation, :reason, :coerced_at)
	`, table)
}
