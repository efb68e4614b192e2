package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DocumentFlushLatency records how long rewriting one JSON document takes.
	DocumentFlushLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "socialnest_document_flush_latency_seconds",
		Help:    "Document flush latency in seconds by collection",
		Buckets: prometheus.DefBuckets,
	}, []string{"collection"})

	// JournalReplays counts commits repaired from the journal at startup.
	JournalReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "socialnest_document_journal_replays_total",
		Help: "Total number of document commits replayed from the journal",
	})

	// RegistryUpdates counts registry updates by outcome.
	RegistryUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_registry_updates_total",
		Help: "Total registry updates by outcome",
	}, []string{"outcome"})

	// NotificationsCreated counts fanout records by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_notifications_created_total",
		Help: "Total notifications created by type",
	}, []string{"type"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "socialnest_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "socialnest_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// TrackFlush returns a function that records flush latency when called (e.g. defer).
func TrackFlush(collection string) func() {
	start := time.Now()
	return func() {
		DocumentFlushLatency.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	}
}
