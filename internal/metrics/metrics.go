package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "giteastats"

// Metrics holds the collectors of the collection engine. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched       *prometheus.CounterVec
	PaginationCeilings *prometheus.CounterVec
	RepositoryFailures prometheus.Counter
	Runs               *prometheus.CounterVec
	RunDuration        prometheus.Histogram
}

// New creates the collectors on a dedicated registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		PagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages fetched from Gitea, by listing kind.",
		}, []string{"kind"}),
		PaginationCeilings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pagination_ceiling_hits_total",
			Help:      "Listings cut short by the page-count ceiling, by listing kind.",
		}, []string{"kind"}),
		RepositoryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repository_failures_total",
			Help:      "Repositories whose collection failed.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Collection runs, by final status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of collection runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
	}

	registry.MustRegister(
		m.PagesFetched,
		m.PaginationCeilings,
		m.RepositoryFailures,
		m.Runs,
		m.RunDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PageFetched(kind string) {
	if m == nil {
		return
	}
	m.PagesFetched.WithLabelValues(kind).Inc()
}

func (m *Metrics) CeilingReached(kind string) {
	if m == nil {
		return
	}
	m.PaginationCeilings.WithLabelValues(kind).Inc()
}

func (m *Metrics) RepositoryFailed() {
	if m == nil {
		return
	}
	m.RepositoryFailures.Inc()
}

// RunFinished records the final status and duration of a run
func (m *Metrics) RunFinished(status string, seconds float64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(seconds)
}
