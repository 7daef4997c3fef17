package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_http_requests_total",
			Help: "Total number of HTTP requests processed by the tutoring service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tutoring_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	// Conversation views

	wsActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutoring_ws_active_connections",
			Help: "Open conversation websockets by conversation kind.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_ws_events_total",
			Help: "Websocket lifecycle and limiter events by conversation kind.",
		},
		[]string{"kind", "event"},
	)

	// Realtime feed

	feedSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tutoring_feed_subscriptions",
			Help: "Number of active realtime feed subscriptions.",
		},
		[]string{"table"},
	)
	feedDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_feed_dropped_total",
			Help: "Realtime rows dropped before reaching a conversation.",
		},
		[]string{"table", "reason"},
	)

	// Providers

	roomsProvisionedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_rooms_provisioned_total",
			Help: "Video room provisioning attempts by outcome.",
		},
		[]string{"outcome"},
	)
	videoCallStatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tutoring_video_call_states_total",
			Help: "Video call state changes reported by clients.",
		},
		[]string{"state"},
	)
	amqpPublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tutoring_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

// HTTPMetricsMiddleware records count and latency per route template.
// Requests that match no route share one label.
func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) { wsActiveConnections.WithLabelValues(kind).Inc() }
func DecWSActive(kind string) { wsActiveConnections.WithLabelValues(kind).Dec() }

func IncWSEvent(kind, event string) { wsEventsTotal.WithLabelValues(kind, event).Inc() }

func IncFeedSubscriptions(table string) { feedSubscriptions.WithLabelValues(table).Inc() }
func DecFeedSubscriptions(table string) { feedSubscriptions.WithLabelValues(table).Dec() }

// IncFeedDropped counts a row that never reached a conversation list.
func IncFeedDropped(table, reason string) {
	feedDroppedTotal.WithLabelValues(table, reason).Inc()
}

func IncRoomProvisioned(outcome string) {
	roomsProvisionedTotal.WithLabelValues(outcome).Inc()
}

func IncVideoCallState(state string) {
	videoCallStatesTotal.WithLabelValues(state).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
