package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the draft orchestrator.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          *prometheus.CounterVec
	errorsTotal            *prometheus.CounterVec
	segmentsCreatedTotal   *prometheus.CounterVec
	operationsTotal        *prometheus.CounterVec
	segmentsAttachedTotal  prometheus.Counter
	draftsCreatedTotal     prometheus.Counter
	registryEvictionsTotal *prometheus.CounterVec
	registryEntries        *prometheus.GaugeVec
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_requests_total",
		Help: "Total number of HTTP requests received, by method and route pattern",
	}, []string{"method", "route"})
	errorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx), by route pattern and status",
	}, []string{"route", "status"})
	segmentsCreatedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_segments_created_total",
		Help: "Total number of segments built and registered, by segment kind",
	}, []string{"kind"})
	operationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_operations_total",
		Help: "Total number of submitted segment operations, by operation kind and result",
	}, []string{"operation", "result"})
	segmentsAttachedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draft_segments_attached_total",
		Help: "Total number of segments moved into a draft",
	})
	draftsCreatedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "draft_drafts_created_total",
		Help: "Total number of drafts created",
	})
	registryEvictionsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_registry_evictions_total",
		Help: "Total number of registry entries evicted to stay within capacity, by scope",
	}, []string{"scope"})
	registryEntries := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "draft_registry_entries",
		Help: "Number of entries held by each registry scope",
	}, []string{"scope"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		segmentsCreatedTotal,
		operationsTotal,
		segmentsAttachedTotal,
		draftsCreatedTotal,
		registryEvictionsTotal,
		registryEntries,
	)

	return &Metrics{
		registry:               registry,
		requestsTotal:          requestsTotal,
		errorsTotal:            errorsTotal,
		segmentsCreatedTotal:   segmentsCreatedTotal,
		operationsTotal:        operationsTotal,
		segmentsAttachedTotal:  segmentsAttachedTotal,
		draftsCreatedTotal:     draftsCreatedTotal,
		registryEvictionsTotal: registryEvictionsTotal,
		registryEntries:        registryEntries,
	}
}

// IncRequests increments the request counter for a route.
func (m *Metrics) IncRequests(method, route string) {
	m.requestsTotal.WithLabelValues(method, route).Inc()
}

// IncErrors increments the error counter for a route and status code.
func (m *Metrics) IncErrors(route string, status int) {
	m.errorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

// IncSegmentsCreated counts one registered segment of the given kind.
func (m *Metrics) IncSegmentsCreated(kind string) {
	m.segmentsCreatedTotal.WithLabelValues(kind).Inc()
}

// IncOperations counts one submitted operation. result is "ok" or "error".
func (m *Metrics) IncOperations(operation, result string) {
	m.operationsTotal.WithLabelValues(operation, result).Inc()
}

// IncSegmentsAttached increments the attached segments counter.
func (m *Metrics) IncSegmentsAttached() {
	m.segmentsAttachedTotal.Inc()
}

// IncDraftsCreated increments the drafts created counter.
func (m *Metrics) IncDraftsCreated() {
	m.draftsCreatedTotal.Inc()
}

// IncEvictions counts one capacity eviction in the given registry scope.
func (m *Metrics) IncEvictions(scope string) {
	m.registryEvictionsTotal.WithLabelValues(scope).Inc()
}

// SetRegistryEntries sets the entry gauge of a registry scope.
func (m *Metrics) SetRegistryEntries(scope string, n int) {
	m.registryEntries.WithLabelValues(scope).Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. registry sizes).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
