package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// XLSXSource reads one worksheet of an Excel workbook; the first row is the header
type XLSXSource struct {
	name   string
	path   string
	sheet  string
	logger *zap.Logger
}

// Location returns the workbook path
func (s *XLSXSource) Location() string {
	return s.path
}

// Load reads the configured sheet, or the first sheet when none is set
func (s *XLSXSource) Load(ctx context.Context) (*model.Table, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			s.logger.Warn("Failed to close workbook", zap.String("path", s.path), zap.Error(cerr))
		}
	}()

	sheet := s.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s: workbook has no sheets", s.path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q of %s: %w", sheet, s.path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("sheet " + sheet + " is empty")
	}

	t, err := buildTable(s.name, rows[0], rows[1:])
	if err != nil {
		return nil, err
	}

	s.logger.Info("Loaded XLSX dataset",
		zap.String("dataset", s.name),
		zap.String("path", s.path),
		zap.String("sheet", sheet),
		zap.Int("rows", t.Len()))
	return t, nil
}
