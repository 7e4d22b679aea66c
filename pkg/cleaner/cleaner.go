// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// NormalizeSpec names the key columns of a dataset
type NormalizeSpec struct {
	RegionColumn string
	YearColumn   string
}

// Normalizer prepares datasets for joining on (region, year)
type Normalizer struct {
	logger *zap.Logger
	runID  string
	now    func() time.Time
}

// NewNormalizer creates a Normalizer that tags audit records with runID
func NewNormalizer(logger *zap.Logger, runID string) (*Normalizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Normalizer{
		logger: logger,
		runID:  runID,
		now:    time.Now,
	}, nil
}

// Normalize returns a copy of t with the region column lower-cased and trimmed
// and the year column coerced to numbers. Years that cannot be read become
// Null and are reported as coercion operations. The input table is not modified.
func (n *Normalizer) Normalize(t *model.Table, spec NormalizeSpec) (*model.Table, []model.CoercionOperation, error) {
	if t == nil {
		return nil, nil, errors.New("table cannot be nil")
	}

	regionIdx := t.ColumnIndex(spec.RegionColumn)
	if regionIdx < 0 {
		return nil, nil, fmt.Errorf("dataset %s: region column %q not found", t.Name, spec.RegionColumn)
	}
	yearIdx := t.ColumnIndex(spec.YearColumn)
	if yearIdx < 0 {
		return nil, nil, fmt.Errorf("dataset %s: year column %q not found", t.Name, spec.YearColumn)
	}

	out := t.Clone()
	var operations []model.CoercionOperation

	for i, row := range out.Rows {
		row[regionIdx] = NormalizeRegion(row[regionIdx])

		year, op := coerceNumericCell(row[yearIdx])
		row[yearIdx] = year
		if op != nil {
			op.RunID = n.runID
			op.Dataset = t.Name
			op.ColumnName = spec.YearColumn
			op.RowIndex = i
			op.CoercedAt = n.now()
			operations = append(operations, *op)
		}
	}

	if len(operations) > 0 {
		n.logger.Warn("Coerced unreadable years to null",
			zap.String("dataset", t.Name),
			zap.String("column", spec.YearColumn),
			zap.Int("count", len(operations)))
	}

	n.logger.Info("Normalized dataset",
		zap.String("dataset", t.Name),
		zap.Int("rows", out.Len()),
		zap.String("region_column", spec.RegionColumn),
		zap.String("year_column", spec.YearColumn))

	return out, operations, nil
}
