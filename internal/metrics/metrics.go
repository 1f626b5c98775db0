// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TicketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Tickets created, by source",
		},
		[]string{"source"},
	)

	// result is one of created, merged, duplicate, rejected
	WebhookReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_replies_total",
			Help: "Inbound n8n reply webhooks by outcome",
		},
		[]string{"result"},
	)

	OutboundWebhooks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "outbound_webhook_total",
			Help: "Outbound n8n webhook calls by kind and result",
		},
		[]string{"kind", "result"},
	)

	WebsocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Currently connected websocket clients",
		},
	)
)

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordTicketCreated(source string) {
	TicketsCreated.WithLabelValues(source).Inc()
}

func RecordWebhookReply(result string) {
	WebhookReplies.WithLabelValues(result).Inc()
}

func RecordOutboundWebhook(kind string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	OutboundWebhooks.WithLabelValues(kind, result).Inc()
}
