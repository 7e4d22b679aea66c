package converter

import (
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

func mergedFixture() *model.Table {
	t := model.NewTable("merged", []string{"Region", "Year of Registration", "GDPValue", "Empty"})
	t.Rows = []model.Row{
		{model.Text("girona"), model.Number(2015), model.Text("100.5"), model.Null()},
		{model.Text("lleida"), model.Text("2016"), model.Null(), model.Null()},
	}
	return t
}

func TestInferMetadataPostgres(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())
	meta := c.InferMetadata(mergedFixture(), "public", "gi_economic_merged")

	want := []struct {
		sqlType  string
		nullable bool
	}{
		{"TEXT", false},
		{"BIGINT", false},
		{"DOUBLE PRECISION", true},
		{"TEXT", true},
	}
	for i, w := range want {
		col := meta.Columns[i]
		if col.SQLType != w.sqlType || col.Nullable != w.nullable {
			t.Errorf("column %s = (%s, nullable=%v), want (%s, nullable=%v)", col.Name, col.SQLType, col.Nullable, w.sqlType, w.nullable)
		}
	}
	if meta.GetColumnByName("gdpvalue") == nil {
		t.Error("GetColumnByName should be case-insensitive")
	}
}

func TestInferMetadataSQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dialect = DialectSQLite
	c := NewTypeConverterWithConfig(zap.NewNop(), cfg)
	meta := c.InferMetadata(mergedFixture(), "", "merged")

	got := []string{meta.Columns[0].SQLType, meta.Columns[1].SQLType, meta.Columns[2].SQLType}
	want := []string{"TEXT", "INTEGER", "REAL"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d type = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestGenerateColumnDefinitions(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())
	defs := c.GenerateColumnDefinitions(c.InferMetadata(mergedFixture(), "public", "m"))

	if defs[1] != `"Year of Registration" BIGINT NOT NULL` {
		t.Errorf("defs[1] = %s", defs[1])
	}
	if defs[2] != `"GDPValue" DOUBLE PRECISION NULL` {
		t.Errorf("defs[2] = %s", defs[2])
	}
}

func TestConvertRows(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())
	tbl := mergedFixture()
	rows, err := c.ConvertRows(tbl, c.InferMetadata(tbl, "public", "m"))
	if err != nil {
		t.Fatalf("ConvertRows: %v", err)
	}

	if rows[0][0] != "girona" {
		t.Errorf("region = %v", rows[0][0])
	}
	if rows[1][1] != int64(2016) {
		t.Errorf("year = %#v, want int64(2016)", rows[1][1])
	}
	if rows[0][2] != 100.5 {
		t.Errorf("gdp = %#v", rows[0][2])
	}
	if rows[1][2] != nil || rows[0][3] != nil {
		t.Error("null cells should convert to nil")
	}
}

func TestFromDriverValue(t *testing.T) {
	c := NewTypeConverter(zap.NewNop())
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		in   interface{}
		want model.Value
	}{
		{"nil", nil, model.Null()},
		{"string", "girona", model.Text("girona")},
		{"empty string", "", model.Null()},
		{"bytes", []byte("2015"), model.Text("2015")},
		{"int64", int64(2015), model.Number(2015)},
		{"float", 12.5, model.Number(12.5)},
		{"nan", math.NaN(), model.Null()},
		{"bool", true, model.Text("true")},
		{"time", ts, model.Text("2024-01-02T03:04:05Z")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.FromDriverValue(tt.in); !got.Equal(tt.want) {
				t.Errorf("FromDriverValue(%v) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
