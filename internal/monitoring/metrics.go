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

type SyncMetrics struct {
	SyncsTotal      *prometheus.CounterVec
	ConflictsTotal  *prometheus.CounterVec
	DuplicatesTotal prometheus.Counter
	FeedMessages    *prometheus.CounterVec
}

var (
	HTTP = HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customersync_http_requests_total",
				Help: "Total number of HTTP requests received.",
			},
			[]string{"method", "path", "code"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "customersync_http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "code"},
		),
	}

	Sync = SyncMetrics{
		SyncsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customersync_syncs_total",
				Help: "Total number of successful customer syncs by action taken on primary record.",
			},
			[]string{"action", "customer_type"},
		),
		ConflictsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customersync_conflicts_total",
				Help: "Total number of syncs rejected because of conflicting stored customer.",
			},
			[]string{"customer_type"},
		),
		DuplicatesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "customersync_duplicates_written_total",
				Help: "Total number of duplicate customer records written during syncs.",
			},
		),
		FeedMessages: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customersync_feed_messages_total",
				Help: "Total number of feed messages consumed by outcome.",
			},
			[]string{"outcome"},
		),
	}
)

func RecordHTTPRequest(method, path, code string, duration time.Duration) {
	HTTP.RequestsTotal.WithLabelValues(method, path, code).Inc()
	HTTP.RequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

func RecordSync(action, customerType string, duplicates int) {
	Sync.SyncsTotal.WithLabelValues(action, customerType).Inc()
	Sync.DuplicatesTotal.Add(float64(duplicates))
}

func RecordConflict(customerType string) {
	Sync.ConflictsTotal.WithLabelValues(customerType).Inc()
}

func RecordFeedMessage(outcome string) {
	Sync.FeedMessages.WithLabelValues(outcome).Inc()
}
