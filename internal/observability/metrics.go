// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conduit_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// DomainEvents counts successful mutations by kind
	// (user.registered, article.created, article.favorited, profile.followed, ...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_domain_events_total",
		Help: "Total number of successful domain mutations by kind",
	}, []string{"event"})

	// CacheLookups counts cache-aside lookups by key family and outcome.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_cache_lookups_total",
		Help: "Cache lookups by key family and result (hit or miss)",
	}, []string{"family", "result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conduit_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketEventsTotal counts WebSocket events delivered by type.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_websocket_events_total",
		Help: "Total WebSocket events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conduit_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// RecordEvent increments the domain event counter.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// RecordCacheLookup increments the cache lookup counter.
func RecordCacheLookup(family string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(family, result).Inc()
}
