package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/connector"
	"github.com/David-Botos/gi-impact/pkg/model"
)

// VerificationReport summarizes the checks run on a merged table
type VerificationReport struct {
	VerificationTime time.Time
	RegistryRows     int
	MergedRows       int
	CardinalityOK    bool
	LeftoverColumns  []string
	Duration         time.Duration
}

// Passed reports whether every check succeeded
func (r *VerificationReport) Passed() bool {
	return r.CardinalityOK && len(r.LeftoverColumns) == 0
}

// Verifier checks merge output invariants
type Verifier struct {
	logger    *zap.Logger
	forbidden []string
	timeout   time.Duration
}

// NewVerifier creates a verifier that rejects any of the forbidden columns
func NewVerifier(forbidden []string, logger *zap.Logger) *Verifier {
	return &Verifier{
		logger:    logger,
		forbidden: forbidden,
		timeout:   time.Minute,
	}
}

// WithTimeout sets a custom timeout for database checks
func (v *Verifier) WithTimeout(timeout time.Duration) *Verifier {
	v.timeout = timeout
	return v
}

// VerifyMerge checks that a left join kept every registry row and that no
// suffixed key columns survived. A failed check returns the report together
// with an error wrapping ErrVerificationFailed.
func (v *Verifier) VerifyMerge(registry, merged *model.Table) (*VerificationReport, error) {
	start := time.Now()
	report := &VerificationReport{
		VerificationTime: start,
		RegistryRows:     registry.Len(),
		MergedRows:       merged.Len(),
	}

	report.CardinalityOK = merged.Len() >= registry.Len()
	if !report.CardinalityOK {
		v.logger.Warn("Merged table lost registry rows",
			zap.Int("registryRows", registry.Len()),
			zap.Int("mergedRows", merged.Len()))
	}

	for _, col := range v.forbidden {
		if merged.HasColumn(col) {
			report.LeftoverColumns = append(report.LeftoverColumns, col)
		}
	}
	if len(report.LeftoverColumns) > 0 {
		v.logger.Warn("Merged table still has suffixed key columns",
			zap.Strings("columns", report.LeftoverColumns))
	}

	report.Duration = time.Since(start)

	if !report.Passed() {
		return report, fmt.Errorf("%w: %d registry rows, %d merged rows, leftover columns %v",
			ErrVerificationFailed, report.RegistryRows, report.MergedRows, report.LeftoverColumns)
	}

	v.logger.Info("Merge verification successful",
		zap.Int("registryRows", report.RegistryRows),
		zap.Int("mergedRows", report.MergedRows))
	return report, nil
}

// VerifyRowCount compares the row count of an exported table with want
func (v *Verifier) VerifyRowCount(ctx context.Context, db connector.DatabaseConnector, qualifiedTable string, want int) error {
	var got int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", qualifiedTable)
	if err := db.QueryRowWithTimeout(ctx, query, v.timeout, []interface{}{&got}); err != nil {
		return fmt.Errorf("failed to count rows in %s: %w", qualifiedTable, err)
	}

	if got != int64(want) {
		v.logger.Warn("Row count mismatch",
			zap.String("table", qualifiedTable),
			zap.Int("expected", want),
			zap.Int64("actual", got))
		return fmt.Errorf("%w: %s has %d rows, expected %d", ErrVerificationFailed, qualifiedTable, got, want)
	}

	v.logger.Info("Row count verification successful",
		zap.String("table", qualifiedTable),
		zap.Int64("count", got))
	return nil
}
