package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// CSVExporter writes a header row plus one line per row, without an index column.
// Null cells are written as empty fields.
type CSVExporter struct {
	path string
}

// NewCSVExporter creates a CSV exporter that overwrites path
func NewCSVExporter(path string) *CSVExporter {
	return &CSVExporter{path: path}
}

// Name returns the exporter name
func (e *CSVExporter) Name() string {
	return "csv"
}

// Path returns the output file
func (e *CSVExporter) Path() string {
	return e.path
}

// Export writes the table to the file
func (e *CSVExporter) Export(ctx context.Context, t *model.Table) (err error) {
	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("create %s: %w", e.path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	return WriteCSV(ctx, f, t)
}

// WriteCSV writes t as comma-separated text
func WriteCSV(ctx context.Context, w io.Writer, t *model.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for i, row := range t.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		for j, v := range row {
			record[j] = v.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
