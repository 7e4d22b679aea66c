package source

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/converter"
	"github.com/David-Botos/gi-impact/pkg/model"
)

// SnowflakeSource reads a whole warehouse table
type SnowflakeSource struct {
	name      string
	schema    string
	table     string
	fetcher   TableFetcher
	converter *converter.TypeConverter
	logger    *zap.Logger
}

// Location returns the snowflake:// reference
func (s *SnowflakeSource) Location() string {
	return fmt.Sprintf("snowflake://%s/%s", s.schema, s.table)
}

// Load fetches the table and converts driver values to cells
func (s *SnowflakeSource) Load(ctx context.Context) (*model.Table, error) {
	columns, rows, err := s.fetcher.FetchTable(ctx, s.schema, s.table)
	if err != nil {
		return nil, err
	}

	t := model.NewTable(s.name, MangleHeaders(columns))
	t.Rows = make([]model.Row, len(rows))
	for i, raw := range rows {
		if len(raw) != len(columns) {
			return nil, fmt.Errorf("%s: row %d has %d values, expected %d", s.Location(), i, len(raw), len(columns))
		}
		row := make(model.Row, len(raw))
		for j, v := range raw {
			row[j] = s.converter.FromDriverValue(v)
		}
		t.Rows[i] = row
	}

	s.logger.Info("Loaded Snowflake dataset",
		zap.String("dataset", s.name),
		zap.String("location", s.Location()),
		zap.Int("rows", t.Len()))
	return t, nil
}
