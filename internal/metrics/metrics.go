// Package metrics exports a run as a Prometheus textfile, for node
// exporter's textfile collector or CI artifact scraping.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dkoosis/testrules/internal/coverage"
	"github.com/dkoosis/testrules/internal/summary"
)

// Namespace prefixes every metric name.
const Namespace = "testrules"

// Run identifies the run being exported.
type Run struct {
	ID       string
	Selector string
}

type runMetrics struct {
	total          *prometheus.GaugeVec
	passed         *prometheus.GaugeVec
	failed         *prometheus.GaugeVec
	errored        *prometheus.GaugeVec
	successRate    *prometheus.GaugeVec
	duration       *prometheus.GaugeVec
	methodDuration *prometheus.GaugeVec
	coverage       *prometheus.GaugeVec
}

// newRunMetrics registers the run metrics on reg. A private registry per
// export keeps process metrics out of the file.
func newRunMetrics(reg prometheus.Registerer) *runMetrics {
	factory := promauto.With(reg)
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      name,
			Help:      help,
		}, append([]string{"run_id", "selector"}, labels...))
	}
	return &runMetrics{
		total:          gauge("tests_total", "Number of test methods executed"),
		passed:         gauge("tests_passed", "Number of passed test methods"),
		failed:         gauge("tests_failed", "Number of failed test methods, errors excluded"),
		errored:        gauge("tests_errored", "Number of errored test methods"),
		successRate:    gauge("success_rate", "Percentage of passed test methods"),
		duration:       gauge("duration_seconds", "Summed execution time of the run"),
		methodDuration: gauge("method_duration_seconds", "Execution time of one test method", "method", "status"),
		coverage:       gauge("coverage_percent", "Statement coverage of the run"),
	}
}

// Export writes the metrics of one run to path, replacing it atomically.
// cov may be nil when coverage was not collected.
func Export(path string, run Run, s summary.RunSummary, cov *coverage.Report) error {
	reg := prometheus.NewRegistry()
	m := newRunMetrics(reg)
	labels := prometheus.Labels{"run_id": run.ID, "selector": run.Selector}

	m.total.With(labels).Set(float64(s.Total))
	m.passed.With(labels).Set(float64(s.Passed))
	m.failed.With(labels).Set(float64(s.Failed - s.Errored))
	m.errored.With(labels).Set(float64(s.Errored))
	m.successRate.With(labels).Set(s.SuccessRate)
	m.duration.With(labels).Set(s.Duration.Seconds())
	for _, o := range s.Outcomes {
		m.methodDuration.WithLabelValues(run.ID, run.Selector, o.Method.FullName(), string(o.Status)).Set(o.Duration.Seconds())
	}
	if cov != nil {
		m.coverage.With(labels).Set(cov.LinePercent())
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics dir: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
