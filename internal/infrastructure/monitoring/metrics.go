package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

type DBMetrics struct {
	QueryDuration *prometheus.HistogramVec
}

type EventMetrics struct {
	PublishedTotal *prometheus.CounterVec
	ConsumedTotal  *prometheus.CounterVec
	OutboxPending  prometheus.Gauge
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebank_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	DB = DBMetrics{
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corebank_db_query_duration_seconds",
				Help:    "Histogram of database query latencies.",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"query_name", "status"},
		),
	}

	Events = EventMetrics{
		PublishedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_events_published_total",
				Help: "Total number of events published to the broker, by routing key and status.",
			},
			[]string{"routing_key", "status"},
		),
		ConsumedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "corebank_events_consumed_total",
				Help: "Total number of event deliveries handled, by queue and outcome.",
			},
			[]string{"queue", "outcome"},
		),
		OutboxPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "corebank_outbox_pending_messages",
				Help: "Number of outbox messages observed pending at the last relay sweep.",
			},
		),
	}
)

// Consumer outcomes recorded by RecordEventConsumed.
const (
	OutcomeProcessed  = "processed"
	OutcomeDuplicate  = "duplicate"
	OutcomeRetried    = "retried"
	OutcomeDeadLetter = "dead_letter"
	OutcomeRejected   = "rejected"
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordDBQuery(queryName, status string, duration time.Duration) {
	DB.QueryDuration.WithLabelValues(queryName, status).Observe(duration.Seconds())
}

func RecordEventPublished(routingKey, status string) {
	Events.PublishedTotal.WithLabelValues(routingKey, status).Inc()
}

func RecordEventConsumed(queue, outcome string) {
	Events.ConsumedTotal.WithLabelValues(queue, outcome).Inc()
}

func SetOutboxPending(n int) {
	Events.OutboxPending.Set(float64(n))
}
