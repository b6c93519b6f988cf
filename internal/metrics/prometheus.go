// Package metrics exports run results in Prometheus textfile format for
// the node_exporter textfile collector, which is how the hosts' other
// backup exporters publish their state.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/holthome/backupctl/internal/logging"
)

// RunMetrics is the subset of a run report exported as Prometheus metrics.
type RunMetrics struct {
	Hostname string

	StartTime time.Time
	EndTime   time.Time

	ExitCode           int
	TotalServices      int
	Successful         int
	Failed             int
	TimedOut           int
	Skipped            int
	FailureRatePercent int
}

// PrometheusExporter writes run metrics for the node_exporter textfile collector.
type PrometheusExporter struct {
	textfileDir string
	logger      *logging.Logger
}

// NewPrometheusExporter creates a new PrometheusExporter using the provided directory.
func NewPrometheusExporter(textfileDir string, logger *logging.Logger) *PrometheusExporter {
	return &PrometheusExporter{
		textfileDir: strings.TrimRight(textfileDir, "/"),
		logger:      logger,
	}
}

// Export writes the given metrics snapshot to backup_orchestrator.prom in
// textfileDir, atomically via tmp+rename.
func (pe *PrometheusExporter) Export(m *RunMetrics) error {
	if pe == nil || m == nil {
		return nil
	}

	if pe.textfileDir == "" {
		return fmt.Errorf("metrics textfile directory is empty")
	}

	if err := os.MkdirAll(pe.textfileDir, 0o755); err != nil {
		return fmt.Errorf("create metrics directory %s: %w", pe.textfileDir, err)
	}

	tmpPath := filepath.Join(pe.textfileDir, "backup_orchestrator.prom.tmp")
	finalPath := filepath.Join(pe.textfileDir, "backup_orchestrator.prom")

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create metrics file %s: %w", tmpPath, err)
	}
	defer f.Close()

	// Helper to write a single metric with HELP/TYPE
	writeMetric := func(name, mtype, help, value string) {
		fmt.Fprintf(f, "# HELP %s %s\n", name, help)
		fmt.Fprintf(f, "# TYPE %s %s\n", name, mtype)
		fmt.Fprintln(f, value)
	}

	duration := m.EndTime.Sub(m.StartTime)
	if duration < 0 {
		duration = 0
	}

	writeMetric(
		"backup_orchestrator_start_time_seconds",
		"gauge",
		"Unix timestamp of orchestrator run start",
		fmt.Sprintf("backup_orchestrator_start_time_seconds %d", m.StartTime.Unix()),
	)

	writeMetric(
		"backup_orchestrator_end_time_seconds",
		"gauge",
		"Unix timestamp of orchestrator run end",
		fmt.Sprintf("backup_orchestrator_end_time_seconds %d", m.EndTime.Unix()),
	)

	writeMetric(
		"backup_orchestrator_duration_seconds",
		"gauge",
		"Duration of last orchestrator run in seconds",
		fmt.Sprintf("backup_orchestrator_duration_seconds %.2f", duration.Seconds()),
	)

	writeMetric(
		"backup_orchestrator_exit_code",
		"gauge",
		"Exit code of last orchestrator run (0 ok, 1 partial, 2 critical, 130 interrupted)",
		fmt.Sprintf("backup_orchestrator_exit_code %d", m.ExitCode),
	)

	writeMetric(
		"backup_orchestrator_failure_rate_percent",
		"gauge",
		"Failure rate over executed units in last run",
		fmt.Sprintf("backup_orchestrator_failure_rate_percent %d", m.FailureRatePercent),
	)

	// Per-state unit counts
	fmt.Fprintf(f, "# HELP backup_orchestrator_units_total Units per terminal state in last run\n")
	fmt.Fprintf(f, "# TYPE backup_orchestrator_units_total gauge\n")
	fmt.Fprintf(f, "backup_orchestrator_units_total{state=\"success\"} %d\n", m.Successful)
	fmt.Fprintf(f, "backup_orchestrator_units_total{state=\"failed\"} %d\n", m.Failed)
	fmt.Fprintf(f, "backup_orchestrator_units_total{state=\"timed_out\"} %d\n", m.TimedOut)
	fmt.Fprintf(f, "backup_orchestrator_units_total{state=\"skipped\"} %d\n", m.Skipped)

	fmt.Fprintf(f, "# HELP backup_orchestrator_info Static information about this run\n")
	fmt.Fprintf(f, "# TYPE backup_orchestrator_info gauge\n")
	fmt.Fprintf(f, "backup_orchestrator_info{hostname=%q} 1\n", m.Hostname)

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync metrics file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("rename metrics file to %s: %w", finalPath, err)
	}

	if pe.logger != nil {
		pe.logger.Debug("Prometheus metrics exported to %s", finalPath)
	}

	return nil
}
