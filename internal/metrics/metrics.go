// ABOUTME: Prometheus metrics for the analysis engine.
// ABOUTME: Tracks job outcomes, cache effectiveness, and per-runner latency and failures.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every instrument the engine reports into.
type Metrics struct {
	registry *prometheus.Registry

	JobsTotal      *prometheus.CounterVec
	JobsInFlight   prometheus.Gauge
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	RunnerDuration *prometheus.HistogramVec
	RunnerFailures *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_analysis_jobs_total",
				Help: "Number of analysis jobs by terminal outcome",
			},
			[]string{"outcome"},
		),

		JobsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sentinel_analysis_jobs_in_flight",
				Help: "Number of analysis jobs currently running",
			},
		),

		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentinel_report_cache_hits_total",
				Help: "Number of analyses served from the report cache",
			},
		),

		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentinel_report_cache_misses_total",
				Help: "Number of analyses that missed the report cache",
			},
		),

		RunnerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sentinel_runner_duration_seconds",
				Help:    "Wall time of individual sub-analysis runners",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"kind"},
		),

		RunnerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentinel_runner_failures_total",
				Help: "Number of runner failures by kind and reason",
			},
			[]string{"kind", "reason"},
		),
	}

	m.registry.MustRegister(
		m.JobsTotal,
		m.JobsInFlight,
		m.CacheHits,
		m.CacheMisses,
		m.RunnerDuration,
		m.RunnerFailures,
	)

	return m
}

// Handler exposes the metrics registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
