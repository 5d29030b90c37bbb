package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PricingQuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_pricing_quotes_total",
			Help: "Total number of subscription price quotes by plan and discount tier",
		},
		[]string{"plan", "discount_percent"},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_subscriptions_created_total",
			Help: "Total number of subscriptions created",
		},
		[]string{"plan"},
	)

	SubscriptionPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studio_subscription_pauses_total",
			Help: "Total number of subscription pauses",
		},
	)

	SubscriptionReactivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_subscription_reactivations_total",
			Help: "Total number of subscription reactivations by cutoff offset in days",
		},
		[]string{"offset_days"},
	)

	StatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_subscription_status_transitions_total",
			Help: "Persisted status corrections made by the status sync job",
		},
		[]string{"from", "to"},
	)

	ManifestDeliveries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studio_manifest_deliveries",
			Help: "Number of deliveries in the most recently built manifest",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studio_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studio_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordQuote(plan string, discountPercent int) {
	PricingQuotesTotal.WithLabelValues(plan, strconv.Itoa(discountPercent)).Inc()
}

func RecordSubscription(plan string) {
	SubscriptionsCreatedTotal.WithLabelValues(plan).Inc()
}

func RecordPause() {
	SubscriptionPausesTotal.Inc()
}

func RecordReactivation(offsetDays int) {
	SubscriptionReactivationsTotal.WithLabelValues(strconv.Itoa(offsetDays)).Inc()
}

func RecordStatusTransition(from, to string) {
	StatusTransitionsTotal.WithLabelValues(from, to).Inc()
}

func SetManifestDeliveries(n int) {
	ManifestDeliveries.Set(float64(n))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func SetEmailQueueLength(n int64) {
	EmailQueueLength.Set(float64(n))
}
