package export

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/connector"
	"github.com/David-Botos/gi-impact/pkg/converter"
	"github.com/David-Botos/gi-impact/pkg/model"
	"github.com/David-Botos/gi-impact/pkg/source"
)

func mergedTable() *model.Table {
	t := model.NewTable("merged", []string{"Name", "Region", "Year of Registration", "GDPValue"})
	t.Rows = []model.Row{
		{model.Text("Oli, extra"), model.Text("girona"), model.Number(2015), model.Number(100.5)},
		{model.Text("Cava"), model.Text("lleida"), model.Null(), model.Null()},
	}
	return t
}

func TestCSVExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.csv")
	if err := NewCSVExporter(path).Export(context.Background(), mergedTable()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := "Name,Region,Year of Registration,GDPValue\n\"Oli, extra\",girona,2015,100.5\nCava,lleida,,\n"
	if string(raw) != want {
		t.Errorf("CSV output =\n%s\nwant\n%s", raw, want)
	}

	back, err := source.ReadCSV(context.Background(), "merged", strings.NewReader(string(raw)), ',')
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if back.Len() != 2 || !back.Rows[1][3].IsNull() {
		t.Errorf("round trip lost nulls: %+v", back.Rows)
	}
	if v, ok := back.Rows[0][3].Numeric(); !ok || v != 100.5 {
		t.Errorf("round trip GDPValue = %+v", back.Rows[0][3])
	}
}

func TestCSVExporterUnwritablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing-dir", "merged.csv")
	if err := NewCSVExporter(path).Export(context.Background(), mergedTable()); err == nil {
		t.Error("expected error writing into a missing directory")
	}
}

func TestXLSXExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.xlsx")
	if err := NewXLSXExporter(path).Export(context.Background(), mergedTable()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(DefaultSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][2] != "Year of Registration" || rows[1][3] != "100.5" {
		t.Errorf("unexpected contents %v", rows)
	}
}

func TestSQLExporterSQLite(t *testing.T) {
	ctx := context.Background()
	conn, err := connector.NewSQLiteConnector(ctx, filepath.Join(t.TempDir(), "merged.db"))
	if err != nil {
		t.Fatalf("NewSQLiteConnector: %v", err)
	}
	defer conn.Close()

	cfg := converter.DefaultConfig()
	cfg.Dialect = converter.DialectSQLite
	conv := converter.NewTypeConverterWithConfig(zap.NewNop(), cfg)

	exp, err := NewSQLExporter("sqlite", conn, conv, "", "merged", zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLExporter: %v", err)
	}
	if err := exp.Export(ctx, mergedTable()); err != nil {
		t.Fatalf("Export: %v", err)
	}

	var year int64
	var gdp float64
	err = conn.DB().QueryRow(`SELECT "Year of Registration", "GDPValue" FROM "merged" WHERE "Region" = ?`, "girona").Scan(&year, &gdp)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if year != 2015 || gdp != 100.5 {
		t.Errorf("got (%d, %v), want (2015, 100.5)", year, gdp)
	}
}

type failingExporter struct{ err error }

func (f failingExporter) Name() string { return "failing" }
func (f failingExporter) Export(context.Context, *model.Table) error {
	return f.err
}

func TestMultiRunsAllAndCombinesErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "merged.csv")
	boom := errors.New("disk full")

	m := NewMulti(zap.NewNop(), failingExporter{err: boom}, NewCSVExporter(path))
	err := m.Export(context.Background(), mergedTable())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("CSV exporter should still run after a failure: %v", statErr)
	}
}
