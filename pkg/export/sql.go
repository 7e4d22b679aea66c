package export

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/connector"
	"github.com/David-Botos/gi-impact/pkg/converter"
	"github.com/David-Botos/gi-impact/pkg/model"
)

// SQLExporter replaces a database table with the contents of a Table.
// Column types are inferred per dialect by the converter.
type SQLExporter struct {
	name      string
	writer    connector.TableWriter
	converter *converter.TypeConverter
	schema    string
	table     string
	logger    *zap.Logger
}

// NewSQLExporter creates an exporter over an open connection
func NewSQLExporter(
	name string,
	writer connector.TableWriter,
	conv *converter.TypeConverter,
	schema, table string,
	logger *zap.Logger,
) (*SQLExporter, error) {
	if writer == nil {
		return nil, errors.New("table writer cannot be nil")
	}
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if table == "" {
		return nil, errors.New("table name is required")
	}

	return &SQLExporter{
		name:      name,
		writer:    writer,
		converter: conv,
		schema:    schema,
		table:     table,
		logger:    logger,
	}, nil
}

// Name returns the exporter name
func (e *SQLExporter) Name() string {
	return e.name
}

// Export drops and recreates the target table, then inserts every row
func (e *SQLExporter) Export(ctx context.Context, t *model.Table) error {
	metadata := e.converter.InferMetadata(t, e.schema, e.table)

	values, err := e.converter.ConvertRows(t, metadata)
	if err != nil {
		return fmt.Errorf("convert rows: %w", err)
	}

	inserted, err := e.writer.ReplaceTable(ctx, e.schema, e.table,
		e.converter.GenerateColumnDefinitions(metadata), metadata.ColumnNames(), values)
	if err != nil {
		return err
	}

	if inserted != int64(len(values)) {
		e.logger.Warn("Inserted row count differs from table size",
			zap.String("table", e.table),
			zap.Int64("inserted", inserted),
			zap.Int("expected", len(values)))
	}
	return nil
}
