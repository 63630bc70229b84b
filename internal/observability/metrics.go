// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	MessagesReceived  prometheus.Counter
	MessagesDropped   *prometheus.CounterVec
	StateTransitions  *prometheus.CounterVec
	Reconnects        prometheus.Counter
	FeedSize          prometheus.Gauge
	EnrichmentLatency prometheus.Histogram

	// Metadata metrics
	MetadataFetches *prometheus.CounterVec
	MetadataLatency prometheus.Histogram

	// Moderation metrics
	ModerationDecisions *prometheus.CounterVec
	RemoteCallLatency   prometheus.Histogram
	ProxyRequests       *prometheus.CounterVec

	// Side output metrics
	PublishErrors   prometheus.Counter
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastMessageReceived prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg.
// A nil reg uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "solana_token_feed"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		// Stream metrics
		MessagesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_received_total",
			Help:      "Total number of token messages received",
		}),
		MessagesDropped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "messages_dropped_total",
			Help:      "Total number of token messages dropped by reason",
		}, []string{"reason"}),
		StateTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "state_transitions_total",
			Help:      "Total number of connection state transitions by target state",
		}, []string{"state"}),
		Reconnects: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_scheduled_total",
			Help:      "Total number of reconnect attempts scheduled",
		}),
		FeedSize: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "size",
			Help:      "Current number of entries in the feed",
		}),
		EnrichmentLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "enrichment_latency_seconds",
			Help:      "Time from message receipt to feed insertion in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Metadata metrics
		MetadataFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "fetches_total",
			Help:      "Total number of metadata fetches by result",
		}, []string{"result"}),
		MetadataLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "metadata",
			Name:      "fetch_latency_seconds",
			Help:      "Metadata fetch latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),

		// Moderation metrics
		ModerationDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "decisions_total",
			Help:      "Total number of moderation decisions by stage and verdict",
		}, []string{"stage", "verdict"}),
		RemoteCallLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "remote_call_latency_seconds",
			Help:      "Remote moderation call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ProxyRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of moderation proxy requests by status code",
		}, []string{"code"}),

		// Side output metrics
		PublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "publish_errors_total",
			Help:      "Total number of feed publish failures",
		}),
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastMessageReceived: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_message_received_timestamp",
			Help:      "Unix timestamp of last received token message",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", nil)

// RecordMessageReceived increments the received counter and health gauge.
func RecordMessageReceived(unixSeconds float64) {
	DefaultMetrics.MessagesReceived.Inc()
	DefaultMetrics.LastMessageReceived.Set(unixSeconds)
}

// RecordMessageDropped records a dropped message.
func RecordMessageDropped(reason string) {
	DefaultMetrics.MessagesDropped.WithLabelValues(reason).Inc()
}

// RecordStateTransition records a connection state change.
func RecordStateTransition(state string) {
	DefaultMetrics.StateTransitions.WithLabelValues(state).Inc()
}

// RecordReconnectScheduled increments the reconnect counter.
func RecordReconnectScheduled() {
	DefaultMetrics.Reconnects.Inc()
}

// UpdateFeedSize updates the feed size gauge.
func UpdateFeedSize(n int) {
	DefaultMetrics.FeedSize.Set(float64(n))
}

// RecordEnrichment records end-to-end enrichment latency.
func RecordEnrichment(seconds float64) {
	DefaultMetrics.EnrichmentLatency.Observe(seconds)
}

// RecordMetadataFetch records a metadata fetch outcome.
func RecordMetadataFetch(result string, seconds float64) {
	DefaultMetrics.MetadataFetches.WithLabelValues(result).Inc()
	DefaultMetrics.MetadataLatency.Observe(seconds)
}

// RecordModeration records a moderation verdict.
func RecordModeration(stage string, safe bool) {
	verdict := "unsafe"
	if safe {
		verdict = "safe"
	}
	DefaultMetrics.ModerationDecisions.WithLabelValues(stage, verdict).Inc()
}

// RecordRemoteLatency records remote moderation call latency.
func RecordRemoteLatency(seconds float64) {
	DefaultMetrics.RemoteCallLatency.Observe(seconds)
}

// RecordProxyRequest records a proxy response code.
func RecordProxyRequest(code string) {
	DefaultMetrics.ProxyRequests.WithLabelValues(code).Inc()
}

// RecordPublishError increments the publish failure counter.
func RecordPublishError() {
	DefaultMetrics.PublishErrors.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
