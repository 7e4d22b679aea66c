// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// DatabaseConnector defines the interface for database connectors
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sql.DB

	// Validate verifies the connection and permissions
	Validate() error

	// Close closes the connection and releases resources
	Close() error

	// QueryRowWithTimeout runs a single-row query and scans it into dest
	QueryRowWithTimeout(ctx context.Context, query string, timeout time.Duration, dest []interface{}, args ...interface{}) error

	// ExecWithTimeout executes a statement with a timeout
	ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error)
}

// TableWriter is implemented by connectors that can (re)create and fill a table
type TableWriter interface {
	ReplaceTable(ctx context.Context, schema, table string, columnDefs, columns []string, rows [][]interface{}) (int64, error)
}

// Placeholder renders the n-th (1-based) bind parameter of a statement
type Placeholder func(n int) string

// DollarPlaceholder renders PostgreSQL style parameters ($1, $2, ...)
func DollarPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// QuestionPlaceholder renders SQLite style parameters
func QuestionPlaceholder(int) string {
	return "?"
}

func queryRowWithTimeout(
	ctx context.Context,
	db *sql.DB,
	query string,
	timeout time.Duration,
	dest []interface{},
	args ...interface{},
) error {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.QueryRowContext(queryCtx, query, args...).Scan(dest...)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("open_connections", stats.OpenConnections),
		zap.Int("in_use", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("max_open", stats.MaxOpenConns),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- db.PingContext(pingCtx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-pingCtx.Done():
		return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
	}
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// QualifiedName quotes schema.table, or just the table when schema is empty
func QualifiedName(schema, table string) string {
	if schema == "" {
		return pq.QuoteIdentifier(table)
	}
	return pq.QuoteIdentifier(schema) + "." + pq.QuoteIdentifier(table)
}

// BuildInsertStatement renders a multi-row INSERT for rowCount rows
func BuildInsertStatement(table string, columns []string, rowCount int, ph Placeholder) string {
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = pq.QuoteIdentifier(col)
	}

	placeholders := make([]string, rowCount)
	for j := 0; j < rowCount; j++ {
		rowPlaceholders := make([]string, len(columns))
		for k := range columns {
			rowPlaceholders[k] = ph(j*len(columns) + k + 1)
		}
		placeholders[j] = "(" + strings.Join(rowPlaceholders, ", ") + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// BuildCreateStatement renders a CREATE TABLE for the given column definitions
func BuildCreateStatement(table string, columnDefs []string) string {
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", table, strings.Join(columnDefs, ",\n\t"))
}

// rowsPerBatch caps the batch so a single statement stays under the driver's parameter limit
func rowsPerBatch(batchSize, columnCount, maxParams int) int {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if columnCount == 0 {
		return batchSize
	}
	if limit := maxParams / columnCount; limit < batchSize {
		batchSize = limit
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return batchSize
}

// replaceTable drops, recreates and fills a table inside one transaction
func replaceTable(
	ctx context.Context,
	db *sql.DB,
	logger *zap.Logger,
	table string,
	columnDefs []string,
	columns []string,
	valueRows [][]interface{},
	batchSize int,
	maxParams int,
	ph Placeholder,
) (inserted int64, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err = tx.ExecContext(ctx, BuildCreateStatement(table, columnDefs)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	perBatch := rowsPerBatch(batchSize, len(columns), maxParams)
	for i := 0; i < len(valueRows); i += perBatch {
		end := i + perBatch
		if end > len(valueRows) {
			end = len(valueRows)
		}
		batch := valueRows[i:end]

		args := make([]interface{}, 0, len(batch)*len(columns))
		for _, row := range batch {
			args = append(args, row...)
		}

		var result sql.Result
		result, err = tx.ExecContext(ctx, BuildInsertStatement(table, columns, len(batch), ph), args...)
		if err != nil {
			return inserted, fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}

		affected, raErr := result.RowsAffected()
		if raErr != nil {
			logger.Warn("Couldn't get rows affected", zap.Error(raErr))
		} else {
			inserted += affected
		}
	}

	if err = tx.Commit(); err != nil {
		return inserted, fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Info("Replaced table",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
		zap.Int64("rows", inserted))
	return inserted, nil
}
