// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// sqliteMaxParams is SQLITE_MAX_VARIABLE_NUMBER for current SQLite builds
const sqliteMaxParams = 32766

// SQLiteConnector implements the DatabaseConnector interface for a SQLite file
type SQLiteConnector struct {
	db        *sql.DB
	logger    *zap.Logger
	path      string
	batchSize int
}

// NewSQLiteConnector opens (creating if needed) the SQLite database at path
func NewSQLiteConnector(ctx context.Context, path string) (*SQLiteConnector, error) {
	logger := zap.L().Named("sqlite-connector")
	logger.Info("Opening SQLite database", zap.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY on the file
	ApplyConnectionSettings(db, 1, 1, 0, 0)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database %s: %w", path, err)
	}

	return &SQLiteConnector{
		db:        db,
		logger:    logger,
		path:      path,
		batchSize: 500,
	}, nil
}

// DB returns the underlying database connection
func (c *SQLiteConnector) DB() *sql.DB {
	return c.db
}

// Validate checks that the database answers queries
func (c *SQLiteConnector) Validate() error {
	var version string
	if err := c.db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite", zap.String("version", version), zap.String("path", c.path))
	return nil
}

// Close closes the database connection
func (c *SQLiteConnector) Close() error {
	c.logger.Info("Closing SQLite database", zap.String("path", c.path))
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *SQLiteConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// QueryRowWithTimeout runs a single-row query with a timeout and scans it into dest
func (c *SQLiteConnector) QueryRowWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	dest []interface{},
	args ...interface{},
) error {
	return queryRowWithTimeout(ctx, c.db, query, timeout, dest, args...)
}

// ReplaceTable drops and recreates the table, then bulk inserts the rows.
// SQLite has no schemas, so schema is ignored.
func (c *SQLiteConnector) ReplaceTable(
	ctx context.Context,
	schema string,
	table string,
	columnDefs []string,
	columns []string,
	valueRows [][]interface{},
) (int64, error) {
	return replaceTable(ctx, c.db, c.logger, QualifiedName("", table),
		columnDefs, columns, valueRows, c.batchSize, sqliteMaxParams, QuestionPlaceholder)
}
