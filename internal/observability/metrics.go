package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "noisemap"

// Metrics holds the Prometheus collectors of the emission service.
type Metrics struct {
	RowsProcessed *prometheus.CounterVec // labels: mode
	RowsFailed    *prometheus.CounterVec // labels: mode
	RunsTotal     *prometheus.CounterVec // labels: status={completed,failed}
	RunsActive    prometheus.Gauge

	RunDuration    prometheus.Histogram
	ExportBytes    prometheus.Histogram
	SingleRequests *prometheus.CounterVec // labels: mode, outcome={success,error}
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_processed_total",
			Help:      "Source rows turned into spectra.",
		}, []string{"mode"}),
		RowsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_failed_total",
			Help:      "Source rows skipped because their emission could not be computed.",
		}, []string{"mode"}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished batch runs by final status.",
		}, []string{"status"}),
		RunsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Batch runs currently in progress.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a batch run from creation to completion.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
		ExportBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_bytes",
			Help:      "Size of uploaded Parquet exports.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10),
		}),
		SingleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "single_emissions_total",
			Help:      "Single-row emission requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RowsProcessed,
		m.RowsFailed,
		m.RunsTotal,
		m.RunsActive,
		m.RunDuration,
		m.ExportBytes,
		m.SingleRequests,
	}
}

// NewMetrics creates the service metrics and registers them with reg, or
// with the default Prometheus registry when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}
