// Package source reads the pipeline's input datasets into in-memory tables.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/config"
	"github.com/David-Botos/gi-impact/pkg/converter"
	"github.com/David-Botos/gi-impact/pkg/model"
)

// Dataset names used for tables, logs and audit records
const (
	DatasetRegistry       = "registry"
	DatasetGDPPerCapita   = "gdp_per_capita"
	DatasetGVABasicPrices = "gva_basic_prices"
	DatasetGVABySector    = "gva_by_sector"
	DatasetModelInput     = "model_input"
)

// Source loads one dataset
type Source interface {
	Load(ctx context.Context) (*model.Table, error)
	Location() string
}

// TableFetcher reads a whole warehouse table.
// Implemented by connector.SnowflakeConnector.
type TableFetcher interface {
	FetchTable(ctx context.Context, schema, table string) ([]string, [][]interface{}, error)
}

// Options controls how sources are parsed
type Options struct {
	Delimiter rune
	Sheet     string
	Fetcher   TableFetcher
	Converter *converter.TypeConverter
	Logger    *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Delimiter == 0 {
		o.Delimiter = ','
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Converter == nil {
		o.Converter = converter.NewTypeConverter(o.Logger)
	}
	return o
}

// ParseSource picks a Source implementation for a location:
// snowflake://SCHEMA/TABLE, *.xlsx / *.xlsm workbooks, anything else as CSV.
func ParseSource(name, location string, opts Options) (Source, error) {
	opts = opts.withDefaults()

	if strings.HasPrefix(location, config.SnowflakeScheme) {
		ref := strings.TrimPrefix(location, config.SnowflakeScheme)
		schema, table, ok := strings.Cut(ref, "/")
		if !ok || schema == "" || table == "" || strings.Contains(table, "/") {
			return nil, fmt.Errorf("invalid snowflake location %q (expected %sSCHEMA/TABLE)", location, config.SnowflakeScheme)
		}
		if opts.Fetcher == nil {
			return nil, errors.New("snowflake location given but no Snowflake connection is available")
		}
		return &SnowflakeSource{
			name:      name,
			schema:    schema,
			table:     table,
			fetcher:   opts.Fetcher,
			converter: opts.Converter,
			logger:    opts.Logger,
		}, nil
	}

	switch strings.ToLower(filepath.Ext(location)) {
	case ".xlsx", ".xlsm":
		return &XLSXSource{name: name, path: location, sheet: opts.Sheet, logger: opts.Logger}, nil
	default:
		return &CSVSource{name: name, path: location, delimiter: opts.Delimiter, logger: opts.Logger}, nil
	}
}

// buildTable assembles a table from a header record and raw string records
func buildTable(name string, header []string, records [][]string) (*model.Table, error) {
	t := model.NewTable(name, MangleHeaders(header))
	for i, rec := range records {
		if len(rec) > len(t.Columns) {
			return nil, fmt.Errorf("%s: line %d has %d fields, header has %d", name, i+2, len(rec), len(t.Columns))
		}
		row := make(model.Row, len(t.Columns))
		for j := range row {
			if j < len(rec) {
				row[j] = CellValue(rec[j])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
