// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsSent counts deliveries confirmed by a provider.
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Number of notifications successfully delivered",
		},
		[]string{"tenant_id", "channel"},
	)

	// NotificationsFailed counts failed dispatch outcomes, including
	// configuration rejections that never reach a provider.
	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Number of notifications that failed to dispatch",
		},
		[]string{"tenant_id", "channel", "error_code"},
	)

	// NotificationsRetried counts transitions into the retrying state.
	NotificationsRetried = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_retried_total",
			Help: "Number of notifications scheduled for retry",
		},
		[]string{"tenant_id", "channel"},
	)

	// DispatchDuration observes end-to-end sendNotification latency.
	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_dispatch_duration_seconds",
			Help:    "Duration of dispatch operations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	// ProviderRequests counts outbound provider calls by outcome.
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Number of provider API calls",
		},
		[]string{"provider", "outcome"},
	)

	// RetriesDue reports how many ledger entries the last scheduler sweep
	// found due for retry.
	RetriesDue = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_retries_due",
			Help: "Ledger entries due for retry at the last sweep",
		},
	)
)
