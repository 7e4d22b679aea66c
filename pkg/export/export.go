// Package export writes the merged table to its sinks.
package export

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// Exporter persists a table
type Exporter interface {
	Name() string
	Export(ctx context.Context, t *model.Table) error
}

// Multi fans a table out to several exporters.
// Every exporter runs; their errors are combined.
type Multi struct {
	exporters []Exporter
	logger    *zap.Logger
}

// NewMulti creates a fan-out exporter
func NewMulti(logger *zap.Logger, exporters ...Exporter) *Multi {
	return &Multi{exporters: exporters, logger: logger}
}

// Name returns a fixed name for logs
func (m *Multi) Name() string {
	return "multi"
}

// Add appends an exporter
func (m *Multi) Add(e Exporter) {
	m.exporters = append(m.exporters, e)
}

// Len returns the number of exporters
func (m *Multi) Len() int {
	return len(m.exporters)
}

// Names lists the exporters in the order they run
func (m *Multi) Names() []string {
	names := make([]string, len(m.exporters))
	for i, e := range m.exporters {
		names[i] = e.Name()
	}
	return names
}

// Export runs every exporter in order
func (m *Multi) Export(ctx context.Context, t *model.Table) error {
	var err error
	for _, e := range m.exporters {
		start := time.Now()
		if exportErr := e.Export(ctx, t); exportErr != nil {
			m.logger.Error("Export failed", zap.String("exporter", e.Name()), zap.Error(exportErr))
			err = multierr.Append(err, fmt.Errorf("%s export: %w", e.Name(), exportErr))
			continue
		}
		m.logger.Info("Exported table",
			zap.String("exporter", e.Name()),
			zap.String("table", t.Name),
			zap.Int("rows", t.Len()),
			zap.Duration("duration", time.Since(start)))
	}
	return err
}
