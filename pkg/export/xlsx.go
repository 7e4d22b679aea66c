package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// DefaultSheet is the worksheet name used by the XLSX exporter
const DefaultSheet = "Merged"

// XLSXExporter writes the table to a single worksheet
type XLSXExporter struct {
	path  string
	sheet string
}

// NewXLSXExporter creates an XLSX exporter that overwrites path
func NewXLSXExporter(path string) *XLSXExporter {
	return &XLSXExporter{path: path, sheet: DefaultSheet}
}

// Name returns the exporter name
func (e *XLSXExporter) Name() string {
	return "xlsx"
}

// Export writes a header row and one row per record; numbers stay numeric
func (e *XLSXExporter) Export(ctx context.Context, t *model.Table) (err error) {
	f := excelize.NewFile()
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if err := f.SetSheetName(f.GetSheetName(0), e.sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(e.sheet)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]interface{}, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range t.Rows {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = xlsxCell(v)
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(addr, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}

	if err := f.SaveAs(e.path); err != nil {
		return fmt.Errorf("save %s: %w", e.path, err)
	}
	return nil
}

func xlsxCell(v model.Value) interface{} {
	switch v.Kind {
	case model.KindNumber:
		return v.Num
	case model.KindText:
		return v.Text
	default:
		return nil
	}
}
