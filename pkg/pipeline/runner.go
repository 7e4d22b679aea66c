// pkg/pipeline/runner.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/cleaner"
	"github.com/David-Botos/gi-impact/pkg/config"
	"github.com/David-Botos/gi-impact/pkg/connector"
	"github.com/David-Botos/gi-impact/pkg/converter"
	"github.com/David-Botos/gi-impact/pkg/export"
	"github.com/David-Botos/gi-impact/pkg/merge"
	"github.com/David-Botos/gi-impact/pkg/model"
	"github.com/David-Botos/gi-impact/pkg/regression"
	"github.com/David-Botos/gi-impact/pkg/source"
)

// SQLiteMergedTable is the table the merged dataset is written to in SQLite
const SQLiteMergedTable = "gi_economic_merged"

// MSELine renders the console line for a test-set MSE in plain decimal form
func MSELine(mse float64) string {
	return "Mean Squared Error: " + strconv.FormatFloat(mse, 'f', -1, 64)
}

// MergeResult is the outcome of the merge stage
type MergeResult struct {
	Merged       *model.Table
	Coercions    []model.CoercionOperation
	Verification *VerificationReport
	Exports      []string
}

// Runner executes the merge and model stages
type Runner struct {
	cfg       *config.Config
	logger    *zap.Logger
	runID     string
	metrics   *RunMetrics
	factory   *connector.ConnectorFactory
	out       io.Writer
	snowflake *connector.SnowflakeConnector
}

// NewRunner creates a runner with a fresh run ID
func NewRunner(cfg *config.Config, logger *zap.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	runID := uuid.New().String()
	logger = logger.With(zap.String("runID", runID))

	return &Runner{
		cfg:     cfg,
		logger:  logger,
		runID:   runID,
		metrics: NewRunMetrics(runID, logger.Named("metrics")),
		factory: connector.NewConnectorFactory(cfg, logger.Named("connector")),
		out:     os.Stdout,
	}, nil
}

// SetOutput redirects the console result line
func (r *Runner) SetOutput(w io.Writer) {
	r.out = w
}

// RunID returns the identifier attached to logs and audit records
func (r *Runner) RunID() string {
	return r.runID
}

// Metrics returns the run metrics
func (r *Runner) Metrics() *RunMetrics {
	return r.metrics
}

// Close releases any connection opened for sources
func (r *Runner) Close() error {
	if r.snowflake == nil {
		return nil
	}
	err := r.snowflake.Close()
	r.snowflake = nil
	return err
}

// Run executes stages in order and stops at the first failure.
// The report is written when REPORT_PATH is set, even after a failure.
func (r *Runner) Run(ctx context.Context, stages []string) (err error) {
	defer func() {
		r.metrics.Complete()
		if r.cfg.ReportPath != "" {
			if reportErr := r.metrics.WriteReport(r.cfg.ReportPath); reportErr != nil {
				err = multierr.Append(err, reportErr)
			} else {
				r.logger.Info("Wrote run report", zap.String("path", r.cfg.ReportPath))
			}
		}
	}()

	for _, stage := range stages {
		switch stage {
		case config.StageMerge:
			if _, err := r.RunMerge(ctx); err != nil {
				return err
			}
		case config.StageModel:
			if _, err := r.RunModel(ctx); err != nil {
				return err
			}
		default:
			return NewStageError(stage, ErrorCategoryConfig, fmt.Errorf("unknown stage %q", stage))
		}
	}
	return nil
}

func (r *Runner) loader(ctx context.Context) (*source.Loader, error) {
	opts := source.Options{
		Delimiter: r.cfg.CSVDelimiter,
		Sheet:     r.cfg.XLSXSheet,
		Converter: converter.NewTypeConverter(r.logger.Named("converter")),
	}

	if r.cfg.UsesSnowflake() {
		if r.snowflake == nil {
			sf, err := r.factory.CreateSnowflakeConnector(ctx)
			if err != nil {
				return nil, err
			}
			r.snowflake = sf
		}
		opts.Fetcher = r.snowflake
	}

	locs := source.Locations{
		Registry:       r.cfg.RegistryPath,
		GDPPerCapita:   r.cfg.GDPPerCapitaPath,
		GVABasicPrices: r.cfg.GVABasicPricesPath,
		GVABySector:    r.cfg.GVABySectorPath,
	}
	return source.NewLoader(locs, opts, r.cfg.LoadConcurrency, r.logger.Named("source")), nil
}

// RunMerge loads the four datasets, normalizes their keys, left-joins the
// indicators onto the registry, verifies the result and exports it.
func (r *Runner) RunMerge(ctx context.Context) (result *MergeResult, err error) {
	const stage = config.StageMerge
	r.metrics.StartStage(stage)
	rowsIn, rowsOut := 0, 0
	defer func() {
		r.metrics.EndStage(stage, rowsIn, rowsOut, err)
	}()

	loader, err := r.loader(ctx)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryLoad, err)
	}
	bundle, err := loader.LoadDatasets(ctx)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryLoad, err)
	}
	for _, t := range append([]*model.Table{bundle.Registry}, bundle.Indicators()...) {
		r.metrics.RecordDataset(t.Name, t.Len())
	}
	rowsIn = bundle.Registry.Len()

	normalized, ops, err := r.normalize(bundle)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryNormalize, err)
	}
	r.metrics.RecordCoercions(len(ops))

	merger := merge.NewMerger(merge.Options{
		RegionColumn:        r.cfg.RegionColumn,
		RegistryYearColumn:  r.cfg.RegistryYearColumn,
		IndicatorYearColumn: r.cfg.IndicatorYearColumn,
	}, r.logger.Named("merge"))

	merged, err := merger.Merge(normalized)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryMerge, err)
	}
	rowsOut = merged.Len()

	verifier := NewVerifier(merger.DroppedColumns(), r.logger.Named("verifier"))
	report, err := verifier.VerifyMerge(normalized.Registry, merged)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryVerification, err)
	}

	exports, err := r.export(ctx, merged, ops, verifier)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryExport, err)
	}

	return &MergeResult{
		Merged:       merged,
		Coercions:    ops,
		Verification: report,
		Exports:      exports,
	}, nil
}

func (r *Runner) normalize(b *model.Bundle) (*model.Bundle, []model.CoercionOperation, error) {
	normalizer, err := cleaner.NewNormalizer(r.logger.Named("cleaner"), r.runID)
	if err != nil {
		return nil, nil, err
	}

	registrySpec := cleaner.NormalizeSpec{RegionColumn: r.cfg.RegionColumn, YearColumn: r.cfg.RegistryYearColumn}
	indicatorSpec := cleaner.NormalizeSpec{RegionColumn: r.cfg.RegionColumn, YearColumn: r.cfg.IndicatorYearColumn}

	var all []model.CoercionOperation
	run := func(t *model.Table, spec cleaner.NormalizeSpec) (*model.Table, error) {
		out, ops, err := normalizer.Normalize(t, spec)
		if err != nil {
			return nil, err
		}
		all = append(all, ops...)
		return out, nil
	}

	out := &model.Bundle{}
	if out.Registry, err = run(b.Registry, registrySpec); err != nil {
		return nil, nil, err
	}
	if out.GDPPerCapita, err = run(b.GDPPerCapita, indicatorSpec); err != nil {
		return nil, nil, err
	}
	if out.GVABasicPrices, err = run(b.GVABasicPrices, indicatorSpec); err != nil {
		return nil, nil, err
	}
	if out.GVABySector, err = run(b.GVABySector, indicatorSpec); err != nil {
		return nil, nil, err
	}
	return out, all, nil
}

// export writes the merged table to every configured sink. The CSV is always
// written; XLSX, SQLite and PostgreSQL are optional.
func (r *Runner) export(
	ctx context.Context,
	merged *model.Table,
	ops []model.CoercionOperation,
	verifier *Verifier,
) (names []string, err error) {
	logger := r.logger.Named("export")
	multi := export.NewMulti(logger, export.NewCSVExporter(r.cfg.MergedOutputPath))

	if r.cfg.MergedXLSXPath != "" {
		multi.Add(export.NewXLSXExporter(r.cfg.MergedXLSXPath))
	}

	var sqlite *connector.SQLiteConnector
	if r.cfg.MergedSQLitePath != "" {
		sqlite, err = r.factory.CreateSQLiteConnector(ctx, r.cfg.MergedSQLitePath)
		if err != nil {
			return nil, err
		}
		defer func() { err = multierr.Append(err, sqlite.Close()) }()

		convCfg := converter.DefaultConfig()
		convCfg.Dialect = converter.DialectSQLite
		exp, err := export.NewSQLExporter("sqlite", sqlite,
			converter.NewTypeConverterWithConfig(logger, convCfg), "", SQLiteMergedTable, logger)
		if err != nil {
			return nil, err
		}
		multi.Add(exp)
	}

	var postgres *connector.PostgresConnector
	if r.cfg.ExportPostgres {
		postgres, err = r.factory.CreatePostgresConnector(ctx)
		if err != nil {
			return nil, err
		}
		defer func() { err = multierr.Append(err, postgres.Close()) }()

		pg := r.cfg.Postgres
		exp, err := export.NewSQLExporter("postgres", postgres,
			converter.NewTypeConverter(logger), pg.Schema, pg.MergedTable, logger)
		if err != nil {
			return nil, err
		}
		multi.Add(exp)
	}

	if err := multi.Export(ctx, merged); err != nil {
		return nil, err
	}
	names = multi.Names()
	for _, name := range names {
		r.metrics.RecordExport(name)
	}

	if sqlite != nil {
		if err := verifier.VerifyRowCount(ctx, sqlite, connector.QualifiedName("", SQLiteMergedTable), merged.Len()); err != nil {
			return names, err
		}
	}

	if postgres != nil {
		pg := r.cfg.Postgres
		if err := verifier.VerifyRowCount(ctx, postgres, connector.QualifiedName(pg.Schema, pg.MergedTable), merged.Len()); err != nil {
			return names, err
		}

		recorder, err := cleaner.NewAuditRecorder(ctx, postgres.DBx(), pg.Schema, pg.AuditTable, r.logger.Named("audit"))
		if err != nil {
			return names, err
		}
		if err := recorder.Record(ctx, ops); err != nil {
			return names, err
		}
	}

	logger.Info("Merged dataset exported",
		zap.Strings("sinks", names),
		zap.String("csv", r.cfg.MergedOutputPath),
		zap.Int("rows", merged.Len()))
	return names, nil
}

// RunModel fits a linear model of the target column on MODEL_INPUT_PATH and
// prints the held-out mean squared error.
func (r *Runner) RunModel(ctx context.Context) (ev *regression.Evaluation, err error) {
	const stage = config.StageModel
	r.metrics.StartStage(stage)
	rowsIn, rowsOut := 0, 0
	defer func() {
		r.metrics.EndStage(stage, rowsIn, rowsOut, err)
	}()

	if !samePath(r.cfg.ModelInputPath, r.cfg.MergedOutputPath) {
		r.logger.Warn("Model input is not the merged output",
			zap.String("modelInput", r.cfg.ModelInputPath),
			zap.String("mergedOutput", r.cfg.MergedOutputPath))
	}

	loader, err := r.loader(ctx)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryLoad, err)
	}
	t, err := loader.LoadTable(ctx, source.DatasetModelInput, r.cfg.ModelInputPath)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryLoad, err)
	}
	r.metrics.RecordDataset(t.Name, t.Len())
	rowsIn = t.Len()

	ds, err := regression.NewDataset(t, r.cfg.TargetColumn)
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryModel, err)
	}

	ev, err = regression.TrainAndEvaluate(ds, regression.Options{
		TestSize: r.cfg.TestSize,
		Seed:     r.cfg.RandomSeed,
	}, r.logger.Named("regression"))
	if err != nil {
		return nil, NewStageError(stage, ErrorCategoryModel, err)
	}
	rowsOut = ev.TestSize
	r.metrics.RecordEvaluation(ev)

	fmt.Fprintln(r.out, MSELine(ev.MSE))

	if r.cfg.PlotPath != "" {
		if err := regression.SavePredictionPlot(ev, r.cfg.PlotPath); err != nil {
			return ev, NewStageError(stage, ErrorCategoryModel, err)
		}
		r.logger.Info("Saved prediction plot", zap.String("path", r.cfg.PlotPath))
	}

	return ev, nil
}

func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
