// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	briefsGenerated *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	ingestArticles  *prometheus.GaugeVec
}

// New creates and registers every collector.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsdesk",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code",
	}, []string{"route", "method", "status"})
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "newsdesk",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})
	m.briefsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsdesk",
		Name:      "briefs_generated_total",
		Help:      "Brief generations by property type and outcome",
	}, []string{"property_type", "outcome"})
	m.storageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "newsdesk",
		Name:      "storage_failures_total",
		Help:      "Storage failures by operation and backend",
	}, []string{"op", "backend"})
	m.ingestArticles = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "newsdesk",
		Name:      "ingest_articles",
		Help:      "Articles returned by the last ingest pass, by origin (feeds or mock)",
	}, []string{"origin"})

	m.registry.MustRegister(
		m.httpRequests, m.httpDuration, m.briefsGenerated,
		m.storageFailures, m.ingestArticles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// BriefGenerated records a generation attempt. outcome is "ok", "cancelled" or "error".
func (m *Metrics) BriefGenerated(propertyType, outcome string) {
	if m == nil {
		return
	}
	m.briefsGenerated.WithLabelValues(propertyType, outcome).Inc()
}

// StorageFailed records a failed storage operation. backend is the local store name or "mirror".
func (m *Metrics) StorageFailed(op, backend string) {
	if m == nil {
		return
	}
	m.storageFailures.WithLabelValues(op, backend).Inc()
}

// IngestServed records how many articles the last ingest pass returned.
func (m *Metrics) IngestServed(origin string, n int) {
	if m == nil {
		return
	}
	m.ingestArticles.Reset()
	m.ingestArticles.WithLabelValues(origin).Set(float64(n))
}
