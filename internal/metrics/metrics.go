// Package metrics exposes fetch and page counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matthewriabinin/blog/pkg/page"
)

const namespace = "blog"

// Metrics owns a registry and the blog's collectors
type Metrics struct {
	registry *prometheus.Registry

	fetches       *prometheus.CounterVec
	fetchDuration prometheus.Histogram
	settled       *prometheus.CounterVec
	settleTime    *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Post fetches by result.",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Time taken by a single post fetch.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_settled_total",
			Help:      "Page composers reaching a terminal phase.",
		}, []string{"page", "phase"}),
		settleTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_load_seconds",
			Help:      "Time from mount to settle.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"page"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.fetches,
		m.fetchDuration,
		m.settled,
		m.settleTime,
	)
	return m
}

// ObserveFetch records one fetch. It has the shape of fetch.Observer.
func (m *Metrics) ObserveFetch(_ string, took time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.fetchDuration.Observe(took.Seconds())
}

// ObserveSettle records a page reaching a terminal phase. It has the shape
// of page.SettleFunc.
func (m *Metrics) ObserveSettle(name string, phase page.Phase, took time.Duration) {
	m.settled.WithLabelValues(name, phase.String()).Inc()
	m.settleTime.WithLabelValues(name).Observe(took.Seconds())
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
