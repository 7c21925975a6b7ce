package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors
type Metrics struct {
	registry *prometheus.Registry

	jobs     *prometheus.CounterVec
	duration prometheus.Histogram
	ingested *prometheus.CounterVec
	depth    prometheus.Gauge
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydration_jobs_total",
				Help: "Hydration jobs processed, by outcome.",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hydration_duration_seconds",
				Help:    "Time spent hydrating a single article.",
				Buckets: prometheus.DefBuckets,
			},
		),
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ingested_articles_total",
				Help: "Articles enqueued for hydration, by feed.",
			},
			[]string{"feed"},
		),
		depth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "queue_depth",
				Help: "Jobs waiting in the hydration queue.",
			},
		),
	}

	m.registry.MustRegister(
		m.jobs, m.duration, m.ingested, m.depth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// JobFinished records the outcome and duration of a job
func (m *Metrics) JobFinished(status string, elapsed time.Duration) {
	m.jobs.WithLabelValues(status).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ArticlesIngested counts articles enqueued from a feed
func (m *Metrics) ArticlesIngested(feed string, n int) {
	m.ingested.WithLabelValues(feed).Add(float64(n))
}

// SetQueueDepth records the current queue length
func (m *Metrics) SetQueueDepth(n int64) {
	m.depth.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
