package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/config"
	"github.com/David-Botos/gi-impact/pkg/connector"
	"github.com/David-Botos/gi-impact/pkg/model"
	"github.com/David-Botos/gi-impact/pkg/regression"
	"github.com/David-Botos/gi-impact/pkg/source"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func cleanedCSV() string {
	var sb strings.Builder
	sb.WriteString("GDPValue,GVA,impact_on_economy\n")
	for i := 0; i < 10; i++ {
		gdp := float64(100 + 10*i)
		gva := float64((i * 3) % 7)
		fmt.Fprintf(&sb, "%v,%v,%v\n", gdp, gva, 0.5+0.01*gdp+0.2*gva)
	}
	return sb.String()
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		RegistryPath: writeFile(t, dir, "gi.csv",
			"Name,Region,Year of Registration,impact_on_economy\n"+
				"Oli de Girona, Girona ,2015,3.5\n"+
				"Cava,Lleida,2016,1.0\n"+
				"Ratafia,Girona,unknown,2.0\n"),
		GDPPerCapitaPath:   writeFile(t, dir, "gdp.csv", "Region,Year,GDPValue\ngirona,2015,100\n"),
		GVABasicPricesPath: writeFile(t, dir, "gva.csv", "Region,Year,GVA\nGIRONA,2015,50\n"),
		GVABySectorPath:    writeFile(t, dir, "sector.csv", "Region,Year,Agriculture\ngirona,2015.0,5\n"),

		MergedOutputPath: filepath.Join(dir, "merged.csv"),
		ModelInputPath:   writeFile(t, dir, "cleaned.csv", cleanedCSV()),

		RegionColumn:        "Region",
		RegistryYearColumn:  "Year of Registration",
		IndicatorYearColumn: "Year",
		TargetColumn:        "impact_on_economy",

		TestSize:        0.2,
		RandomSeed:      42,
		CSVDelimiter:    ',',
		LoadConcurrency: 2,
		Stages:          []string{config.StageMerge, config.StageModel},
	}
}

func newTestRunner(t *testing.T, cfg *config.Config) (*Runner, *bytes.Buffer) {
	t.Helper()
	r, err := NewRunner(cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	t.Cleanup(func() { r.Close() })

	var out bytes.Buffer
	r.SetOutput(&out)
	return r, &out
}

func value(t *testing.T, tbl *model.Table, row int, col string) model.Value {
	t.Helper()
	idx := tbl.ColumnIndex(col)
	if idx < 0 {
		t.Fatalf("column %q not found in %v", col, tbl.Columns)
	}
	return tbl.Rows[row][idx]
}

func TestRunMergeGironaScenario(t *testing.T) {
	cfg := testConfig(t)
	r, _ := newTestRunner(t, cfg)

	res, err := r.RunMerge(context.Background())
	if err != nil {
		t.Fatalf("RunMerge: %v", err)
	}

	merged := res.Merged
	if merged.Len() != 3 {
		t.Fatalf("merged rows = %d, want 3", merged.Len())
	}
	for _, col := range []string{"Year_x", "Year_y"} {
		if merged.HasColumn(col) {
			t.Errorf("merged table should not contain %s", col)
		}
	}

	if v := value(t, merged, 0, "Region"); !v.Equal(model.Text("girona")) {
		t.Errorf("region = %+v, want girona", v)
	}
	for col, want := range map[string]float64{"GDPValue": 100, "GVA": 50, "Agriculture": 5} {
		if v := value(t, merged, 0, col); !v.Equal(model.Number(want)) {
			t.Errorf("girona %s = %+v, want %v", col, v, want)
		}
	}

	// Unmatched registry rows keep Null indicators
	for _, row := range []int{1, 2} {
		if v := value(t, merged, row, "GDPValue"); !v.IsNull() {
			t.Errorf("row %d GDPValue = %+v, want Null", row, v)
		}
	}

	// "unknown" is coerced to Null and audited
	if v := value(t, merged, 2, "Year of Registration"); !v.IsNull() {
		t.Errorf("unparseable year = %+v, want Null", v)
	}
	if len(res.Coercions) != 1 || res.Coercions[0].RunID != r.RunID() {
		t.Errorf("coercions = %+v", res.Coercions)
	}

	if !res.Verification.Passed() {
		t.Errorf("verification failed: %+v", res.Verification)
	}
	if len(res.Exports) != 1 || res.Exports[0] != "csv" {
		t.Errorf("exports = %v, want [csv]", res.Exports)
	}

	back, err := source.NewCSVSource(source.DatasetRegistry, cfg.MergedOutputPath, ',', zap.NewNop()).Load(context.Background())
	if err != nil {
		t.Fatalf("reading merged CSV: %v", err)
	}
	if back.Len() != 3 || back.HasColumn("Year_x") {
		t.Errorf("merged CSV has %d rows, columns %v", back.Len(), back.Columns)
	}
}

func TestRunMergeOptionalSinks(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.MergedOutputPath)
	cfg.MergedXLSXPath = filepath.Join(dir, "merged.xlsx")
	cfg.MergedSQLitePath = filepath.Join(dir, "merged.db")

	r, _ := newTestRunner(t, cfg)
	res, err := r.RunMerge(context.Background())
	if err != nil {
		t.Fatalf("RunMerge: %v", err)
	}

	want := []string{"csv", "xlsx", "sqlite"}
	if strings.Join(res.Exports, ",") != strings.Join(want, ",") {
		t.Errorf("exports = %v, want %v", res.Exports, want)
	}
	if _, err := os.Stat(cfg.MergedXLSXPath); err != nil {
		t.Errorf("xlsx not written: %v", err)
	}

	conn, err := connector.NewSQLiteConnector(context.Background(), cfg.MergedSQLitePath)
	if err != nil {
		t.Fatalf("NewSQLiteConnector: %v", err)
	}
	defer conn.Close()

	var gdp float64
	query := fmt.Sprintf(`SELECT "GDPValue" FROM %s WHERE "Name" = ?`, connector.QualifiedName("", SQLiteMergedTable))
	if err := conn.DB().QueryRow(query, "Oli de Girona").Scan(&gdp); err != nil {
		t.Fatalf("query: %v", err)
	}
	if gdp != 100 {
		t.Errorf("GDPValue = %v, want 100", gdp)
	}
}

func TestRunMergeMissingInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.GVABySectorPath = filepath.Join(t.TempDir(), "missing.csv")

	r, _ := newTestRunner(t, cfg)
	_, err := r.RunMerge(context.Background())
	if err == nil {
		t.Fatal("expected error for missing input")
	}
	if CategoryOf(err) != ErrorCategoryLoad {
		t.Errorf("category = %s, want Load", CategoryOf(err))
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error should wrap os.ErrNotExist: %v", err)
	}
}

func TestRunMergeMissingKeyColumn(t *testing.T) {
	cfg := testConfig(t)
	cfg.GDPPerCapitaPath = writeFile(t, t.TempDir(), "gdp.csv", "Comarca,Year,GDPValue\ngirona,2015,100\n")

	r, _ := newTestRunner(t, cfg)
	_, err := r.RunMerge(context.Background())
	if CategoryOf(err) != ErrorCategoryNormalize {
		t.Errorf("got %v, want a Normalize stage error", err)
	}
}

func TestRunModel(t *testing.T) {
	cfg := testConfig(t)
	r, out := newTestRunner(t, cfg)

	ev, err := r.RunModel(context.Background())
	if err != nil {
		t.Fatalf("RunModel: %v", err)
	}
	if ev.TrainSize != 8 || ev.TestSize != 2 {
		t.Errorf("sizes = %d/%d, want 8/2", ev.TrainSize, ev.TestSize)
	}

	line := strings.TrimSpace(out.String())
	if !strings.HasPrefix(line, "Mean Squared Error: ") || strings.Contains(line, "\n") {
		t.Errorf("console output = %q", out.String())
	}
	if line != MSELine(ev.MSE) {
		t.Errorf("console output %q does not match MSE %v", line, ev.MSE)
	}
}

func TestMSELine(t *testing.T) {
	tests := []struct {
		mse  float64
		want string
	}{
		{0, "Mean Squared Error: 0"},
		{0.25, "Mean Squared Error: 0.25"},
		{3.6164e+21, "Mean Squared Error: 3616400000000000000000"},
		{1.5e-7, "Mean Squared Error: 0.00000015"},
	}
	for _, tt := range tests {
		if got := MSELine(tt.mse); got != tt.want {
			t.Errorf("MSELine(%v) = %q, want %q", tt.mse, got, tt.want)
		}
	}
}

func TestRunModelDeterministic(t *testing.T) {
	cfg := testConfig(t)

	r1, _ := newTestRunner(t, cfg)
	ev1, err := r1.RunModel(context.Background())
	if err != nil {
		t.Fatalf("RunModel: %v", err)
	}
	r2, _ := newTestRunner(t, cfg)
	ev2, err := r2.RunModel(context.Background())
	if err != nil {
		t.Fatalf("RunModel: %v", err)
	}
	if ev1.MSE != ev2.MSE {
		t.Errorf("MSE differs between runs: %v vs %v", ev1.MSE, ev2.MSE)
	}
}

func TestRunModelOnMergedOutputFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.ModelInputPath = cfg.MergedOutputPath

	r, out := newTestRunner(t, cfg)
	if _, err := r.RunMerge(context.Background()); err != nil {
		t.Fatalf("RunMerge: %v", err)
	}

	_, err := r.RunModel(context.Background())
	if !errors.Is(err, regression.ErrNonNumericFeature) {
		t.Errorf("got %v, want ErrNonNumericFeature", err)
	}
	if CategoryOf(err) != ErrorCategoryModel {
		t.Errorf("category = %s, want Model", CategoryOf(err))
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be printed on failure, got %q", out.String())
	}
}

func TestRunWritesReport(t *testing.T) {
	cfg := testConfig(t)
	dir := filepath.Dir(cfg.MergedOutputPath)
	cfg.ReportPath = filepath.Join(dir, "report.json")
	cfg.PlotPath = filepath.Join(dir, "predictions.png")

	r, out := newTestRunner(t, cfg)
	if err := r.Run(context.Background(), cfg.Stages); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Mean Squared Error: ") {
		t.Errorf("console output = %q", out.String())
	}
	if _, err := os.Stat(cfg.PlotPath); err != nil {
		t.Errorf("plot not written: %v", err)
	}

	raw, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var report struct {
		RunID     string `json:"runId"`
		Coercions int    `json:"coercions"`
		Stages    []struct {
			Name string `json:"name"`
		} `json:"stages"`
		Model *struct {
			MSE float64 `json:"mse"`
		} `json:"model"`
	}
	if err := json.Unmarshal(raw, &report); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if report.RunID != r.RunID() || report.Coercions != 1 || len(report.Stages) != 2 || report.Model == nil {
		t.Errorf("unexpected report %s", raw)
	}
}

func TestRunUnknownStage(t *testing.T) {
	cfg := testConfig(t)
	cfg.ReportPath = filepath.Join(t.TempDir(), "report.txt")

	r, _ := newTestRunner(t, cfg)
	err := r.Run(context.Background(), []string{"train"})
	if CategoryOf(err) != ErrorCategoryConfig {
		t.Errorf("got %v, want a Config stage error", err)
	}

	raw, readErr := os.ReadFile(cfg.ReportPath)
	if readErr != nil {
		t.Fatalf("report should be written after a failure: %v", readErr)
	}
	if !strings.Contains(string(raw), "Pipeline Run Report") {
		t.Errorf("text report missing header:\n%s", raw)
	}
}

func TestVerifierVerifyMerge(t *testing.T) {
	registry := model.NewTable("registry", []string{"Region"})
	registry.Rows = []model.Row{{model.Text("a")}, {model.Text("b")}}

	merged := model.NewTable("merged", []string{"Region", "Year_x"})
	merged.Rows = []model.Row{{model.Text("a"), model.Null()}}

	v := NewVerifier([]string{"Year_x", "Year_y"}, zap.NewNop())
	report, err := v.VerifyMerge(registry, merged)
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("got %v, want ErrVerificationFailed", err)
	}
	if report.CardinalityOK || len(report.LeftoverColumns) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestStageError(t *testing.T) {
	if NewStageError("merge", ErrorCategoryMerge, nil) != nil {
		t.Error("nil error should stay nil")
	}

	base := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewStageError("merge", ErrorCategoryExport, base))
	if !errors.Is(err, base) {
		t.Error("StageError should unwrap to its cause")
	}
	if CategoryOf(err) != ErrorCategoryExport {
		t.Errorf("category = %s", CategoryOf(err))
	}
	if !strings.Contains(err.Error(), "merge stage [Export]: boom") {
		t.Errorf("message = %q", err.Error())
	}
	if ErrorCategory(99).String() != "Unknown(99)" {
		t.Errorf("unknown category = %s", ErrorCategory(99))
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.50s"},
		{125 * time.Second, "2m 5s"},
		{time.Hour + 61*time.Second, "1h 1m 1s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
