package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal         metric.Int64Counter
	ReservationConflictsTotal metric.Int64Counter
	ReservationsCreatedTotal  metric.Int64Counter
	WebhookEventsTotal        metric.Int64Counter
	WebhookFailuresTotal      metric.Int64Counter
	GcashReviewsTotal         metric.Int64Counter
	DBQueryDurationSeconds    metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics initializes the global metric instruments ONLY ONCE.
// It gets the Meter from the globally configured MeterProvider.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("hanapbahay")
		var err error
		m := &AppMetrics{}

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create http_requests_total: %v", err)
		}

		m.ReservationConflictsTotal, err = meter.Int64Counter(
			"reservation_conflicts_total",
			metric.WithDescription("Booking attempts rejected because the listing already had a live reservation"),
			metric.WithUnit("{reservation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create reservation_conflicts_total: %v", err)
		}

		m.ReservationsCreatedTotal, err = meter.Int64Counter(
			"reservations_created_total",
			metric.WithDescription("Reservations successfully created"),
			metric.WithUnit("{reservation}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create reservations_created_total: %v", err)
		}

		m.WebhookEventsTotal, err = meter.Int64Counter(
			"webhook_events_total",
			metric.WithDescription("Payment provider webhook events processed"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_events_total: %v", err)
		}

		m.WebhookFailuresTotal, err = meter.Int64Counter(
			"webhook_failures_total",
			metric.WithDescription("Payment provider webhook events that failed processing"),
			metric.WithUnit("{event}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create webhook_failures_total: %v", err)
		}

		m.GcashReviewsTotal, err = meter.Int64Counter(
			"gcash_reviews_total",
			metric.WithDescription("Manual GCash payment reviews (approvals and declines)"),
			metric.WithUnit("{payment}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create gcash_reviews_total: %v", err)
		}

		m.DBQueryDurationSeconds, err = meter.Float64Histogram(
			"db_query_duration_seconds",
			metric.WithDescription("Duration of database queries in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create db_query_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the global metrics instance; nil before InitAppMetrics runs
// (unit tests typically leave it uninitialized).
func Get() *AppMetrics {
	return appMetrics
}
