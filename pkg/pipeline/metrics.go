package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/David-Botos/gi-impact/pkg/regression"
)

// StageMetrics tracks one stage of a run
type StageMetrics struct {
	Name      string
	StartTime time.Time
	EndTime   time.Time
	RowsIn    int
	RowsOut   int
	Error     string
}

// Duration returns how long the stage ran
func (sm *StageMetrics) Duration() time.Duration {
	if sm.EndTime.IsZero() {
		return time.Since(sm.StartTime)
	}
	return sm.EndTime.Sub(sm.StartTime)
}

// RunMetrics collects counters for a pipeline run
type RunMetrics struct {
	mu          sync.Mutex
	logger      *zap.Logger
	RunID       string
	StartTime   time.Time
	EndTime     time.Time
	Stages      []*StageMetrics
	DatasetRows map[string]int
	Coercions   int
	Exports     []string
	ErrorCounts map[ErrorCategory]int
	Evaluation  *regression.Evaluation
}

// NewRunMetrics creates a metrics collector for runID
func NewRunMetrics(runID string, logger *zap.Logger) *RunMetrics {
	return &RunMetrics{
		logger:      logger,
		RunID:       runID,
		StartTime:   time.Now(),
		DatasetRows: make(map[string]int),
		ErrorCounts: make(map[ErrorCategory]int),
	}
}

// StartStage begins tracking a stage
func (rm *RunMetrics) StartStage(name string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.Stages = append(rm.Stages, &StageMetrics{Name: name, StartTime: time.Now()})

	if rm.logger != nil {
		rm.logger.Info("Started stage", zap.String("stage", name))
	}
}

// EndStage completes the most recent stage called name
func (rm *RunMetrics) EndStage(name string, rowsIn, rowsOut int, err error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	sm := rm.stage(name)
	if sm == nil {
		return
	}
	sm.EndTime = time.Now()
	sm.RowsIn = rowsIn
	sm.RowsOut = rowsOut
	if err != nil {
		sm.Error = err.Error()
		rm.ErrorCounts[CategoryOf(err)]++
	}

	if rm.logger != nil {
		rm.logger.Info("Completed stage",
			zap.String("stage", name),
			zap.Duration("duration", sm.Duration()),
			zap.Int("rowsIn", rowsIn),
			zap.Int("rowsOut", rowsOut),
			zap.Bool("success", err == nil))
	}
}

func (rm *RunMetrics) stage(name string) *StageMetrics {
	for i := len(rm.Stages) - 1; i >= 0; i-- {
		if rm.Stages[i].Name == name {
			return rm.Stages[i]
		}
	}
	return nil
}

// RecordDataset records the row count of a loaded dataset
func (rm *RunMetrics) RecordDataset(name string, rows int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.DatasetRows[name] = rows
}

// RecordCoercions adds to the coercion operation count
func (rm *RunMetrics) RecordCoercions(n int) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.Coercions += n
}

// RecordExport records a sink that received the merged table
func (rm *RunMetrics) RecordExport(name string) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.Exports = append(rm.Exports, name)
}

// RecordEvaluation stores the model results
func (rm *RunMetrics) RecordEvaluation(ev *regression.Evaluation) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.Evaluation = ev
}

// Complete marks the run as finished
func (rm *RunMetrics) Complete() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.EndTime = time.Now()

	if rm.logger != nil {
		rm.logger.Info("Pipeline run completed",
			zap.String("runID", rm.RunID),
			zap.Duration("totalDuration", rm.duration()),
			zap.Int("stages", len(rm.Stages)),
			zap.Int("coercions", rm.Coercions))
	}
}

// Duration returns the total duration of the run
func (rm *RunMetrics) Duration() time.Duration {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.duration()
}

func (rm *RunMetrics) duration() time.Duration {
	if rm.EndTime.IsZero() {
		return time.Since(rm.StartTime)
	}
	return rm.EndTime.Sub(rm.StartTime)
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GenerateReport creates a plain-text run report
func (rm *RunMetrics) GenerateReport() string {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	var sb strings.Builder
	fmt.Fprintf(&sb, `
Pipeline Run Report
===================
Run ID:                  %s
Duration:                %s
Start Time:              %s
Coercions:               %d
`,
		rm.RunID,
		formatDuration(rm.duration()),
		rm.StartTime.Format(time.RFC3339),
		rm.Coercions,
	)

	sb.WriteString("\nStages\n------\n")
	for _, sm := range rm.Stages {
		status := "ok"
		if sm.Error != "" {
			status = "failed: " + sm.Error
		}
		fmt.Fprintf(&sb, "- %s: %s, %d rows in, %d rows out, %s\n",
			sm.Name, formatDuration(sm.Duration()), sm.RowsIn, sm.RowsOut, status)
	}

	if len(rm.DatasetRows) > 0 {
		sb.WriteString("\nDatasets\n--------\n")
		for _, name := range sortedKeys(rm.DatasetRows) {
			fmt.Fprintf(&sb, "- %s: %d rows\n", name, rm.DatasetRows[name])
		}
	}

	if len(rm.Exports) > 0 {
		fmt.Fprintf(&sb, "\nExports:                 %s\n", strings.Join(rm.Exports, ", "))
	}

	if ev := rm.Evaluation; ev != nil {
		sb.WriteString("\nModel\n-----\n")
		fmt.Fprintf(&sb, "Target:                  %s\n", ev.Target)
		fmt.Fprintf(&sb, "Train/Test Rows:         %d/%d\n", ev.TrainSize, ev.TestSize)
		fmt.Fprintf(&sb, "Mean Squared Error:      %s\n", strconv.FormatFloat(ev.MSE, 'f', -1, 64))
		if ev.R2 != nil {
			fmt.Fprintf(&sb, "R2:                      %.4f\n", *ev.R2)
		}
	}

	if len(rm.ErrorCounts) > 0 {
		sb.WriteString("\nErrors\n------\n")
		for category, count := range rm.ErrorCounts {
			fmt.Fprintf(&sb, "- %s: %d\n", category, count)
		}
	}

	return sb.String()
}

type stageJSON struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
	RowsIn   int    `json:"rowsIn"`
	RowsOut  int    `json:"rowsOut"`
	Error    string `json:"error,omitempty"`
}

// ToJSON serializes metrics to JSON
func (rm *RunMetrics) ToJSON() ([]byte, error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	stages := make([]stageJSON, len(rm.Stages))
	for i, sm := range rm.Stages {
		stages[i] = stageJSON{
			Name:     sm.Name,
			Duration: formatDuration(sm.Duration()),
			RowsIn:   sm.RowsIn,
			RowsOut:  sm.RowsOut,
			Error:    sm.Error,
		}
	}

	errorCounts := make(map[string]int, len(rm.ErrorCounts))
	for category, count := range rm.ErrorCounts {
		errorCounts[category.String()] = count
	}

	return json.Marshal(struct {
		RunID       string                 `json:"runId"`
		Duration    string                 `json:"duration"`
		StartTime   time.Time              `json:"startTime"`
		Stages      []stageJSON            `json:"stages"`
		DatasetRows map[string]int         `json:"datasetRows"`
		Coercions   int                    `json:"coercions"`
		Exports     []string               `json:"exports,omitempty"`
		Errors      map[string]int         `json:"errors,omitempty"`
		Model       *regression.Evaluation `json:"model,omitempty"`
	}{
		RunID:       rm.RunID,
		Duration:    formatDuration(rm.duration()),
		StartTime:   rm.StartTime,
		Stages:      stages,
		DatasetRows: rm.DatasetRows,
		Coercions:   rm.Coercions,
		Exports:     rm.Exports,
		Errors:      errorCounts,
		Model:       rm.Evaluation,
	})
}

// WriteReport writes the JSON report when path ends in .json and the text
// report otherwise
func (rm *RunMetrics) WriteReport(path string) (err error) {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if data, err = rm.ToJSON(); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		data = []byte(rm.GenerateReport())
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}
