// Package metrics records run statistics in a Prometheus registry and writes
// them in the node_exporter textfile format.
package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dennisdiepolder/studentops/internal/report"
)

const namespace = "studentops"

// Metrics holds all application metrics
type Metrics struct {
	registry *prometheus.Registry

	recordsGenerated prometheus.Counter
	recordsLoaded    prometheus.Gauge
	chartsWritten    prometheus.Counter
	lastRun          prometheus.Gauge

	stageDuration *prometheus.GaugeVec
	queryDuration *prometheus.HistogramVec
	queryRows     *prometheus.GaugeVec
	queryErrors   *prometheus.CounterVec
	runFailures   *prometheus.CounterVec
}

// New creates metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		recordsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_generated_total",
			Help:      "Interactions written by the generator.",
		}),
		recordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Interactions read from the dataset file.",
		}),
		chartsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_written_total",
			Help:      "Dashboard images written.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
		stageDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time of each pipeline stage.",
		}, []string{"stage"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Time to run a report query.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"engine", "query"}),
		queryRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "query_rows",
			Help:      "Rows returned by a report query.",
		}, []string{"query"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Report queries that failed.",
		}, []string{"query"}),
		runFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_failures_total",
			Help:      "Commands that ended with an error.",
		}, []string{"command"}),
	}

	m.registry.MustRegister(
		m.recordsGenerated,
		m.recordsLoaded,
		m.chartsWritten,
		m.lastRun,
		m.stageDuration,
		m.queryDuration,
		m.queryRows,
		m.queryErrors,
		m.runFailures,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordGenerated adds n generated records
func (m *Metrics) RecordGenerated(n int) {
	m.recordsGenerated.Add(float64(n))
}

// RecordLoaded sets the number of records read for the report
func (m *Metrics) RecordLoaded(n int) {
	m.recordsLoaded.Set(float64(n))
}

// RecordCharts adds n written charts
func (m *Metrics) RecordCharts(n int) {
	m.chartsWritten.Add(float64(n))
}

// RecordStage records how long a stage took
func (m *Metrics) RecordStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Set(d.Seconds())
}

// RecordFailure counts a command that returned an error
func (m *Metrics) RecordFailure(command string) {
	m.runFailures.WithLabelValues(command).Inc()
}

// WriteTextfile stamps the run time and writes every metric to path,
// creating the parent directory.
func (m *Metrics) WriteTextfile(path string) error {
	m.lastRun.SetToCurrentTime()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Instrument wraps engine so each query is timed and counted under name.
func (m *Metrics) Instrument(name string, engine report.Engine) report.Engine {
	return &instrumentedEngine{name: name, next: engine, metrics: m}
}

type instrumentedEngine struct {
	name    string
	next    report.Engine
	metrics *Metrics
}

func (e *instrumentedEngine) Run(ctx context.Context, q report.Query) (*report.Table, error) {
	start := time.Now()
	t, err := e.next.Run(ctx, q)
	e.metrics.queryDuration.WithLabelValues(e.name, string(q.Name)).Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.queryErrors.WithLabelValues(string(q.Name)).Inc()
		return nil, err
	}
	e.metrics.queryRows.WithLabelValues(string(q.Name)).Set(float64(len(t.Rows)))
	return t, nil
}
