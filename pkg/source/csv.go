package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

// CSVSource reads a delimited text file with a header row
type CSVSource struct {
	name      string
	path      string
	delimiter rune
	logger    *zap.Logger
}

// NewCSVSource creates a CSV source
func NewCSVSource(name, path string, delimiter rune, logger *zap.Logger) *CSVSource {
	return &CSVSource{name: name, path: path, delimiter: delimiter, logger: logger}
}

// Location returns the file path
func (s *CSVSource) Location() string {
	return s.path
}

// Load reads the whole file
func (s *CSVSource) Load(ctx context.Context) (*model.Table, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	t, err := ReadCSV(ctx, s.name, f, s.delimiter)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.logger.Info("Loaded CSV dataset",
		zap.String("dataset", s.name),
		zap.String("path", s.path),
		zap.Int("rows", t.Len()),
		zap.Int("columns", len(t.Columns)))
	return t, nil
}

// ReadCSV parses delimited text into a table named name
func ReadCSV(ctx context.Context, name string, r io.Reader, delimiter rune) (*model.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return buildTable(name, header, records)
}
