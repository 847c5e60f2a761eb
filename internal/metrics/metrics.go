// Package metrics provides Prometheus metrics for the mapper.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a mapper run.
type Metrics struct {
	// Record metrics
	RecordsProcessed *prometheus.CounterVec // phase: "retry" | "scan"; outcome: "mapped" | "unmapped" | "ignore"
	RecordErrors     *prometheus.CounterVec // phase

	// Sink metrics
	EntriesWritten prometheus.Counter

	// Bookkeeping metrics
	RetrySetSize       prometheus.Gauge
	WatermarkTimestamp prometheus.Gauge

	// Timing
	RunDuration prometheus.Histogram
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Address string // Address for the metrics HTTP server (e.g., ":9090")
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "clearcode_mapper"
	}

	m := &Metrics{
		RecordsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_processed_total",
				Help:      "Total number of staging records processed, by phase and outcome",
			},
			[]string{"phase", "outcome"},
		),
		RecordErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_errors_total",
				Help:      "Total number of records skipped due to corrupt identifiers or payloads",
			},
			[]string{"phase"},
		),
		EntriesWritten: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "metadata_entries_written_total",
				Help:      "Total number of metadata entries appended to the sink",
			},
		),
		RetrySetSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "retry_set_size",
				Help:      "Number of paths pending retry after the run",
			},
		),
		WatermarkTimestamp: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "watermark_timestamp_seconds",
				Help:      "Unix timestamp of the persisted watermark",
			},
		),
		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of a full orchestration run",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s to ~400s
			},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// IncRecord increments the processed-records counter.
func (m *Metrics) IncRecord(phase, outcome string) {
	if m == nil {
		return
	}
	m.RecordsProcessed.WithLabelValues(phase, outcome).Inc()
}

// IncRecordError increments the record-error counter.
func (m *Metrics) IncRecordError(phase string) {
	if m == nil {
		return
	}
	m.RecordErrors.WithLabelValues(phase).Inc()
}

// AddEntriesWritten adds to the written-entries counter.
func (m *Metrics) AddEntriesWritten(count int) {
	if m == nil {
		return
	}
	m.EntriesWritten.Add(float64(count))
}

// SetRetrySetSize sets the retry-set gauge.
func (m *Metrics) SetRetrySetSize(n int) {
	if m == nil {
		return
	}
	m.RetrySetSize.Set(float64(n))
}

// SetWatermark sets the watermark gauge.
func (m *Metrics) SetWatermark(unixSeconds float64) {
	if m == nil {
		return
	}
	m.WatermarkTimestamp.Set(unixSeconds)
}

// ObserveRunDuration records a full run's duration.
func (m *Metrics) ObserveRunDuration(seconds float64) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(seconds)
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}
