package merge

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// MergedTableName names the output of Merge
const MergedTableName = "merged"

// Options names the key columns of the registry and indicator tables
type Options struct {
	RegionColumn        string
	RegistryYearColumn  string
	IndicatorYearColumn string
	Suffixes            Suffixes
}

// Merger joins a normalized bundle into one table
type Merger struct {
	opts   Options
	logger *zap.Logger
}

// NewMerger creates a Merger; empty suffixes default to _x / _y
func NewMerger(opts Options, logger *zap.Logger) *Merger {
	if opts.Suffixes == (Suffixes{}) {
		opts.Suffixes = DefaultSuffixes
	}
	return &Merger{opts: opts, logger: logger}
}

// DroppedColumns are the suffixed year columns removed from the final table
func (m *Merger) DroppedColumns() []string {
	return []string{
		m.opts.IndicatorYearColumn + m.opts.Suffixes.Left,
		m.opts.IndicatorYearColumn + m.opts.Suffixes.Right,
	}
}

// Merge left-joins GDP per capita, GVA at basic prices and GVA by sector onto
// the registry, in that order, keyed on (region, registration year) against
// (region, year). The suffixed year columns produced by the repeated joins are
// dropped afterwards; their absence is not an error.
func (m *Merger) Merge(b *model.Bundle) (*model.Table, error) {
	if b == nil || b.Registry == nil {
		return nil, errors.New("registry table is required")
	}

	leftOn := []string{m.opts.RegionColumn, m.opts.RegistryYearColumn}
	rightOn := []string{m.opts.RegionColumn, m.opts.IndicatorYearColumn}

	merged := b.Registry
	for _, indicator := range b.Indicators() {
		if indicator == nil {
			return nil, errors.New("indicator table is required")
		}

		joined, err := LeftJoin(merged, indicator, leftOn, rightOn, m.opts.Suffixes)
		if err != nil {
			return nil, fmt.Errorf("merge %s: %w", indicator.Name, err)
		}

		m.logger.Debug("Joined indicator table",
			zap.String("indicator", indicator.Name),
			zap.Int("left_rows", merged.Len()),
			zap.Int("right_rows", indicator.Len()),
			zap.Int("result_rows", joined.Len()),
			zap.Int("result_columns", len(joined.Columns)))

		merged = joined
	}

	merged.Name = MergedTableName
	if err := merged.DropColumns(m.DroppedColumns(), true); err != nil {
		return nil, err
	}

	m.logger.Info("Merged registry with indicators",
		zap.Int("registry_rows", b.Registry.Len()),
		zap.Int("merged_rows", merged.Len()),
		zap.Int("merged_columns", len(merged.Columns)))

	return merged, nil
}
