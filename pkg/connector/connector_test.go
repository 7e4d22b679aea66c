package connector

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestBuildInsertStatement(t *testing.T) {
	got := BuildInsertStatement(`"public"."m"`, []string{"Region", "Year of Registration"}, 2, DollarPlaceholder)
	want := `INSERT INTO "public"."m" ("Region", "Year of Registration") VALUES ($1, $2), ($3, $4)`
	if got != want {
		t.Errorf("BuildInsertStatement =\n%s\nwant\n%s", got, want)
	}

	got = BuildInsertStatement(`"m"`, []string{"a"}, 3, QuestionPlaceholder)
	want = `INSERT INTO "m" ("a") VALUES (?), (?), (?)`
	if got != want {
		t.Errorf("BuildInsertStatement (sqlite) = %s", got)
	}
}

func TestBuildCreateStatement(t *testing.T) {
	got := BuildCreateStatement(`"m"`, []string{`"a" TEXT NULL`, `"b" REAL NULL`})
	want := "CREATE TABLE \"m\" (\n\t\"a\" TEXT NULL,\n\t\"b\" REAL NULL\n)"
	if got != want {
		t.Errorf("BuildCreateStatement = %q", got)
	}
}

func TestQualifiedName(t *testing.T) {
	if got := QualifiedName("public", "merged"); got != `"public"."merged"` {
		t.Errorf("QualifiedName = %s", got)
	}
	if got := QualifiedName("", `we"ird`); got != `"we""ird"` {
		t.Errorf("QualifiedName escaping = %s", got)
	}
}

func TestRowsPerBatch(t *testing.T) {
	tests := []struct {
		batch, cols, max, want int
	}{
		{500, 10, 65535, 500},
		{500, 100, 32766, 327},
		{0, 2, 65535, 1000},
		{500, 40000, 32766, 1},
		{10, 0, 100, 10},
	}
	for _, tt := range tests {
		if got := rowsPerBatch(tt.batch, tt.cols, tt.max); got != tt.want {
			t.Errorf("rowsPerBatch(%d, %d, %d) = %d, want %d", tt.batch, tt.cols, tt.max, got, tt.want)
		}
	}
}

func TestSQLiteReplaceTable(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "merged.db")

	conn, err := NewSQLiteConnector(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLiteConnector: %v", err)
	}
	defer conn.Close()

	if err := conn.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	defs := []string{`"Region" TEXT NULL`, `"GDPValue" REAL NULL`}
	cols := []string{"Region", "GDPValue"}
	rows := [][]interface{}{{"girona", 100.0}, {"lleida", nil}}

	for i := 0; i < 2; i++ {
		n, err := conn.ReplaceTable(ctx, "", "merged", defs, cols, rows)
		if err != nil {
			t.Fatalf("ReplaceTable (pass %d): %v", i, err)
		}
		if n != 2 {
			t.Errorf("inserted %d rows, want 2", n)
		}
	}

	var count int
	if err := conn.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM "merged"`, time.Second, []interface{}{&count}); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("table has %d rows after replacing twice, want 2", count)
	}

	var nulls int
	if err := conn.DB().QueryRow(`SELECT COUNT(*) FROM "merged" WHERE "GDPValue" IS NULL`).Scan(&nulls); err != nil {
		t.Fatalf("null count: %v", err)
	}
	if nulls != 1 {
		t.Errorf("null GDPValue rows = %d, want 1", nulls)
	}
}
