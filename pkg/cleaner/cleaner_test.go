package cleaner

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/model"
)

func registryFixture() *model.Table {
	t := model.NewTable("registry", []string{"Name", "Region", "Year of Registration"})
	t.Rows = []model.Row{
		{model.Text("Oli de Terra Alta"), model.Text(" Girona "), model.Text("2015")},
		{model.Text("Cava"), model.Text("PENEDÈS"), model.Text("unknown")},
		{model.Text("Torró"), model.Null(), model.Null()},
		{model.Text("Pera"), model.Text("Lleida"), model.Number(2011)},
	}
	return t
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(zap.NewNop(), "run-1")
	if err != nil {
		t.Fatalf("NewNormalizer: %v", err)
	}
	return n
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer(t)
	in := registryFixture()

	out, ops, err := n.Normalize(in, NormalizeSpec{RegionColumn: "Region", YearColumn: "Year of Registration"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	wantRegions := []model.Value{model.Text("girona"), model.Text("penedès"), model.Null(), model.Text("lleida")}
	wantYears := []model.Value{model.Number(2015), model.Null(), model.Null(), model.Number(2011)}
	for i := range wantRegions {
		if !out.Rows[i][1].Equal(wantRegions[i]) {
			t.Errorf("row %d region = %+v, want %+v", i, out.Rows[i][1], wantRegions[i])
		}
		if !out.Rows[i][2].Equal(wantYears[i]) {
			t.Errorf("row %d year = %+v, want %+v", i, out.Rows[i][2], wantYears[i])
		}
	}

	if len(ops) != 1 {
		t.Fatalf("got %d coercion operations, want 1", len(ops))
	}
	op := ops[0]
	if op.RowIndex != 1 || op.Dataset != "registry" || op.RunID != "run-1" {
		t.Errorf("unexpected operation %+v", op)
	}
	if op.OriginalValue == nil || *op.OriginalValue != "unknown" || op.NewValue != nil {
		t.Errorf("unexpected values in operation %+v", op)
	}
	if op.Reason != ReasonUnparseable || op.CoercedAt.IsZero() {
		t.Errorf("unexpected reason/time in operation %+v", op)
	}
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	n := newTestNormalizer(t)
	in := registryFixture()

	if _, _, err := n.Normalize(in, NormalizeSpec{RegionColumn: "Region", YearColumn: "Year of Registration"}); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if in.Rows[0][1].Text != " Girona " || in.Rows[0][2].Kind != model.KindText {
		t.Errorf("input table was modified: %+v", in.Rows[0])
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	n := newTestNormalizer(t)
	spec := NormalizeSpec{RegionColumn: "Region", YearColumn: "Year of Registration"}

	once, _, err := n.Normalize(registryFixture(), spec)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	twice, ops, err := n.Normalize(once, spec)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(ops) != 0 {
		t.Errorf("second pass produced %d operations", len(ops))
	}
	for i := range once.Rows {
		for j := range once.Rows[i] {
			if !once.Rows[i][j].Equal(twice.Rows[i][j]) {
				t.Errorf("cell (%d,%d) changed on second pass: %+v -> %+v", i, j, once.Rows[i][j], twice.Rows[i][j])
			}
		}
	}
}

func TestNormalizeMissingColumn(t *testing.T) {
	n := newTestNormalizer(t)
	_, _, err := n.Normalize(registryFixture(), NormalizeSpec{RegionColumn: "Comarca", YearColumn: "Year of Registration"})
	if err == nil || !strings.Contains(err.Error(), "Comarca") {
		t.Errorf("expected missing region column error, got %v", err)
	}
	_, _, err = n.Normalize(registryFixture(), NormalizeSpec{RegionColumn: "Region", YearColumn: "Year"})
	if err == nil {
		t.Error("expected missing year column error")
	}
}

func TestNormalizeRegionString(t *testing.T) {
	for _, in := range []string{" Girona ", "GIRONA", "girona", "\tGirona\n"} {
		if got := NormalizeRegionString(in); got != "girona" {
			t.Errorf("NormalizeRegionString(%q) = %q", in, got)
		}
	}
}

func TestCoerceNumeric(t *testing.T) {
	tests := []struct {
		in   model.Value
		want float64
		ok   bool
	}{
		{model.Text("2015"), 2015, true},
		{model.Text(" 2015.0 "), 2015, true},
		{model.Text("abc"), 0, false},
		{model.Text(""), 0, false},
		{model.Null(), 0, false},
		{model.Number(1999), 1999, true},
	}
	for _, tt := range tests {
		got, ok := CoerceNumeric(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("CoerceNumeric(%+v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestAuditSQL(t *testing.T) {
	ddl := auditTableDDL(`"public"."gi_coercion_audit"`)
	if !strings.Contains(ddl, `CREATE TABLE IF NOT EXISTS "public"."gi_coercion_audit"`) {
		t.Errorf("unexpected DDL: %s", ddl)
	}

	insert := auditInsertSQL(`"public"."gi_coercion_audit"`)
	for _, param := range []string{":run_id", ":dataset", ":column_name", ":row_index", ":original_value", ":new_value", ":operation", ":reason", ":coerced_at"} {
		if !strings.Contains(insert, param) {
			t.Errorf("insert statement missing %s", param)
		}
	}
}
