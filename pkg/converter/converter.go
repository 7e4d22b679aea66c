// pkg/converter/converter.go
package converter

import (
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Dialect identifies the SQL flavour of a sink
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// String returns the dialect name
func (d Dialect) String() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// TypeConverter maps table cells to SQL column types and driver values
type TypeConverter struct {
	logger *zap.Logger
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Target SQL dialect
	Dialect Dialect
	// Store whole-number columns as integers instead of floating point
	PreferIntegers bool
	// Treat empty strings read from databases as NULL
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		Dialect:           DialectPostgres,
		PreferIntegers:    true,
		EmptyStringAsNull: true,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// Dialect returns the dialect the converter targets
func (c *TypeConverter) Dialect() Dialect {
	return c.config.Dialect
}

// InferMetadata scans a table and derives a column layout for the target dialect
func (c *TypeConverter) InferMetadata(t *model.Table, schema, table string) *model.TableMetadata {
	metadata := &model.TableMetadata{
		Schema:  schema,
		Table:   table,
		Columns: make([]model.Column, len(t.Columns)),
	}

	for i, name := range t.Columns {
		col := inferColumn(t, i)
		col.Name = name
		col.SQLType = c.MapKindToSQL(col)
		metadata.Columns[i] = col
	}

	c.logger.Debug("Inferred column layout",
		zap.String("table", table),
		zap.String("dialect", c.config.Dialect.String()),
		zap.Int("columns", len(metadata.Columns)))

	return metadata
}

// GenerateColumnDefinitions creates column definitions for CREATE TABLE
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) []string {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType := col.SQLType
		if sqlType == "" {
			sqlType = c.MapKindToSQL(col)
		}

		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			QuoteIdentifier(col.Name),
			sqlType,
			nullability))
	}

	return definitions
}

// QuoteIdentifier quotes and escapes an identifier. Case and spaces are preserved.
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}
