package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for one service instance. A
// dedicated registry keeps test instances independent of each other.
type Metrics struct {
	registry *prometheus.Registry

	RecordsProcessed *prometheus.CounterVec
	RecordsFailed    *prometheus.CounterVec
	RemoteRequests   *prometheus.CounterVec
	EntitiesCreated  *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
}

// New creates a metrics instance with its own registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RecordsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_records_processed_total",
			Help: "Directory records processed, by job.",
		}, []string{"job"}),
		RecordsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_records_failed_total",
			Help: "Directory records that failed processing, by job.",
		}, []string{"job"}),
		RemoteRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_remote_requests_total",
			Help: "Remote API requests, by method and outcome.",
		}, []string{"method", "outcome"}),
		EntitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_entities_created_total",
			Help: "Remote entities created on first use, by kind.",
		}, []string{"kind"}),
		CacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_cache_hits_total",
			Help: "Cache lookups that hit, by cache name.",
		}, []string{"cache"}),
		CacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "employee_sync_cache_misses_total",
			Help: "Cache lookups that missed, by cache name.",
		}, []string{"cache"}),
	}
}

// Handler returns an HTTP handler exposing the metrics in prometheus format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
