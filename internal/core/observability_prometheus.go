package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements MetricsRecorder on a Prometheus registry so
// long-running loads can be watched over a /metrics endpoint.
type PrometheusMetrics struct {
	results   *prometheus.CounterVec
	durations *prometheus.HistogramVec
}

// Compile-time contract assertion.
var _ MetricsRecorder = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the collectors with reg (defaulting to the
// global registerer) under the genomecore namespace.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PrometheusMetrics{
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "genomecore",
			Name:      "operation_results_total",
			Help:      "Count of operation outcomes by status.",
		}, []string{"op", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "genomecore",
			Name:      "operation_duration_seconds",
			Help:      "Wall-clock duration of operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"op"}),
	}
	reg.MustRegister(m.results, m.durations)
	return m
}

func (m *PrometheusMetrics) IncResult(op, status string) {
	m.results.WithLabelValues(op, status).Inc()
}

func (m *PrometheusMetrics) ObserveDuration(op string, d time.Duration) {
	m.durations.WithLabelValues(op).Observe(d.Seconds())
}
