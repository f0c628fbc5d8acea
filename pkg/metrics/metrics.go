// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justicehub_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// LLMDuration tracks LLM call duration per purpose (assistant, persona, search).
	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justicehub_llm_duration_seconds",
			Help:    "LLM call duration",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"purpose", "model", "status"},
	)

	// LLMTokensTotal tracks total LLM tokens processed.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE connections.
	SSEConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justicehub_sse_connections_active",
			Help: "Number of active SSE connections",
		},
		[]string{"feed"},
	)

	// StatusTransitionsTotal counts appointment and consultation status writes.
	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_status_transitions_total",
			Help: "Status transitions applied or rejected",
		},
		[]string{"kind", "from", "to", "result"},
	)

	// LawyerSearchTotal counts searches by which path produced the result.
	LawyerSearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_lawyer_search_total",
			Help: "Lawyer searches by outcome",
		},
		[]string{"outcome"},
	)

	// CacheRequestsTotal counts lawyer cache lookups.
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_lawyer_cache_requests_total",
			Help: "Lawyer profile cache lookups",
		},
		[]string{"result"},
	)

	// DirectMessagesTotal counts direct messages sent.
	DirectMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justicehub_direct_messages_total",
			Help: "Total direct messages sent",
		},
	)

	// ChatMessagesTotal counts AI chat messages persisted by role.
	ChatMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_chat_messages_total",
			Help: "Total AI chat messages stored",
		},
		[]string{"role"},
	)

	// AppointmentsByStatus is refreshed by the scheduled metrics job.
	AppointmentsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justicehub_appointments",
			Help: "Appointments by status",
		},
		[]string{"kind", "status"},
	)

	// NATSConnectionEvents counts NATS disconnects, reconnects and closes.
	NATSConnectionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justicehub_nats_connection_events_total",
			Help: "NATS connection state changes",
		},
		[]string{"event"},
	)

	// NATSStreamMessages tracks messages in a NATS stream.
	NATSStreamMessages = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justicehub_nats_stream_messages",
			Help: "Number of messages in NATS stream",
		},
		[]string{"stream"},
	)

	// NATSStreamBytes tracks bytes in a NATS stream.
	NATSStreamBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justicehub_nats_stream_bytes",
			Help: "Bytes in NATS stream",
		},
		[]string{"stream"},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, route, status string, duration float64) {
	RequestDuration.WithLabelValues(method, route, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, route, status).Inc()
}

// RecordLLMCall records metrics for one LLM round trip.
func RecordLLMCall(purpose, model, status string, duration float64, tokensIn, tokensOut int) {
	LLMDuration.WithLabelValues(purpose, model, status).Observe(duration)
	if tokensIn > 0 {
		LLMTokensTotal.WithLabelValues(model, "in").Add(float64(tokensIn))
	}
	if tokensOut > 0 {
		LLMTokensTotal.WithLabelValues(model, "out").Add(float64(tokensOut))
	}
}

// RecordTransition records one status write attempt.
func RecordTransition(kind, from, to, result string) {
	StatusTransitionsTotal.WithLabelValues(kind, from, to, result).Inc()
}

// SSEOpened increments the active SSE connection count for a feed.
func SSEOpened(feed string) {
	SSEConnectionsActive.WithLabelValues(feed).Inc()
}

// SSEClosed decrements the active SSE connection count for a feed.
func SSEClosed(feed string) {
	SSEConnectionsActive.WithLabelValues(feed).Dec()
}
