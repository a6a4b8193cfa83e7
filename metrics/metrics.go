// Package metrics holds the Prometheus collectors for the catalog service.
//
// Collectors are created per Metrics value and registered on the Registerer passed to
// New, so tests can use a private registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "facet_catalog"

// Metrics groups every collector exported by the service.
type Metrics struct {
	CacheRequests      *prometheus.CounterVec
	CacheFallbacks     *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
	CacheSwept         prometheus.Counter
	BreakerState       *prometheus.GaugeVec

	StoreDuration *prometheus.HistogramVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg. A nil reg leaves them
// unregistered.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CacheRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_requests_total",
				Help:      "Cache lookups by repository operation and result",
			},
			[]string{"operation", "result"}, // result: hit, miss
		),
		CacheFallbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_fallbacks_total",
				Help:      "Remote cache calls that failed and were served by the in-process map",
			},
			[]string{"operation"},
		),
		CacheInvalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_invalidations_total",
				Help:      "Cache invalidations by scope",
			},
			[]string{"scope"},
		),
		CacheSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_swept_entries_total",
				Help:      "Expired entries removed from the in-process cache by sweeps",
			},
		),
		BreakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
			},
			[]string{"name"},
		),
		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_query_duration_seconds",
				Help:      "Duration of store operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// CacheHit records a cache hit for operation.
func (m *Metrics) CacheHit(operation string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(operation, "hit").Inc()
}

// CacheMiss records a cache miss for operation.
func (m *Metrics) CacheMiss(operation string) {
	if m == nil {
		return
	}
	m.CacheRequests.WithLabelValues(operation, "miss").Inc()
}

// CacheFallback records a remote cache failure served locally.
func (m *Metrics) CacheFallback(operation string) {
	if m == nil {
		return
	}
	m.CacheFallbacks.WithLabelValues(operation).Inc()
}

// Invalidation records an invalidation for scope.
func (m *Metrics) Invalidation(scope string) {
	if m == nil {
		return
	}
	m.CacheInvalidations.WithLabelValues(scope).Inc()
}

// Swept records n entries removed by a memory sweep.
func (m *Metrics) Swept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheSwept.Add(float64(n))
}

// SetBreakerState sets the gauge for the named breaker.
func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(state)
}

// ObserveStore records the duration of a store operation started at start.
func (m *Metrics) ObserveStore(operation string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StoreDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
}
