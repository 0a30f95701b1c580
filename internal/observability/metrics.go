// Package observability holds Prometheus collectors and OpenTelemetry tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// PostViews counts detail views by outcome (counted or deduplicated).
	PostViews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_views_total",
		Help: "Post detail views by outcome",
	}, []string{"outcome"})

	// ViewDedupEntries is the current size of the in-process view dedup window.
	ViewDedupEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_view_dedup_entries",
		Help: "Entries held by the view dedup window",
	})

	// ViewDedupEvictions counts entries dropped by the window, by reason.
	ViewDedupEvictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_view_dedup_evictions_total",
		Help: "Entries evicted from the view dedup window",
	}, []string{"reason"})

	// Recommendations counts recommendation requests by path.
	Recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_recommendations_total",
		Help: "Recommendation requests by path (anonymous, personalized, fallback)",
	}, []string{"path"})

	// EnrichmentResults counts AI enrichment attempts by result.
	EnrichmentResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_enrichment_results_total",
		Help: "AI enrichment attempts by result",
	}, []string{"result"})

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "inkwell_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	}, []string{"name"})

	// WebSocketConnections is the gauge of active notification sockets.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkwell_websocket_connections",
		Help: "Active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MailsSent counts outgoing mails by result.
	MailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_mails_sent_total",
		Help: "Outgoing mails by result",
	}, []string{"result"})
)
