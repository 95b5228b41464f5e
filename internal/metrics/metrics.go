package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "carecircle"

var httpLabels = []string{"method", "path", "status"}

// Metrics is the registry of every collector the server exports under the
// carecircle_ namespace
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	CacheHitsTotal         *prometheus.CounterVec
	CacheMissesTotal       *prometheus.CounterVec
	RateLimitExceededTotal *prometheus.CounterVec

	NotificationsTotal *prometheus.CounterVec
	NotificationQueue  prometheus.Gauge

	ReactionsTotal     *prometheus.CounterVec
	ReportsTotal       *prometheus.CounterVec
	DoctorDecisions    *prometheus.CounterVec
	EventRegistrations *prometheus.CounterVec

	WebSocketConnections prometheus.Gauge
	MessagesSentTotal    *prometheus.CounterVec

	ErrorsTotal *prometheus.CounterVec
}

var (
	instance *Metrics
	once     sync.Once
)

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labels)
}

func gauge(subsystem, name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	})
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

// Initialize registers the collectors with the default registry once
func Initialize() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			HTTPRequestsTotal: counter("http", "requests_total", "HTTP requests by route and status", httpLabels...),
			HTTPRequestDuration: histogram("http", "request_duration_seconds", "HTTP request latency",
				prometheus.DefBuckets, httpLabels...),
			HTTPResponseSize: histogram("http", "response_size_bytes", "HTTP response body size",
				prometheus.ExponentialBuckets(128, 4, 8), httpLabels...),

			CacheHitsTotal:         counter("cache", "hits_total", "Cache lookups served from the store", "cache_name"),
			CacheMissesTotal:       counter("cache", "misses_total", "Cache lookups that fell through", "cache_name"),
			RateLimitExceededTotal: counter("http", "rate_limited_total", "Requests rejected by a rate limit", "endpoint", "method"),

			NotificationsTotal: counter("notifications", "total", "Notification fanout outcomes by type", "type", "outcome"),
			NotificationQueue:  gauge("notifications", "queue_depth", "Notifications waiting for a worker"),

			ReactionsTotal:     counter("content", "reactions_total", "Like and dislike toggles by target type and result", "target_type", "kind", "result"),
			ReportsTotal:       counter("content", "reports_total", "Content reports by target type and reason", "target_type", "reason"),
			DoctorDecisions:    counter("doctors", "approval_decisions_total", "Admin decisions on doctor accounts", "decision"),
			EventRegistrations: counter("events", "registrations_total", "Event registration attempts by outcome", "action", "outcome"),

			WebSocketConnections: gauge("websocket", "sessions", "Open websocket sessions"),
			MessagesSentTotal:    counter("messages", "sent_total", "Direct messages sent by transport", "transport"),

			ErrorsTotal: counter("", "errors_total", "Internal errors by type and component", "error_type", "component"),
		}
	})
	return instance
}

// Get returns the registered metrics, or nil before Initialize
func Get() *Metrics {
	return instance
}
