package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tablebook/booking-svc/internal/domain"
)

// Metrics holds the booking service's Prometheus collectors.
type Metrics struct {
	// BookingsTotal counts booking attempts by outcome.
	BookingsTotal *prometheus.CounterVec

	// BookingRetries counts re-runs after a store conflict.
	BookingRetries prometheus.Counter

	// StatusTransitions counts lifecycle changes by target status.
	StatusTransitions *prometheus.CounterVec

	// NotificationsDropped counts undelivered notifications by reason.
	NotificationsDropped *prometheus.CounterVec

	// RequestDuration observes HTTP handling time.
	RequestDuration *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(namespace string, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BookingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_total",
				Help:      "Booking attempts by outcome",
			},
			[]string{"outcome"},
		),
		BookingRetries: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_retries_total",
				Help:      "Booking flows re-run after a store conflict",
			},
		),
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reservation_transitions_total",
				Help:      "Reservation status changes by target status",
			},
			[]string{"status"},
		),
		NotificationsDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_dropped_total",
				Help:      "Notifications that were not delivered",
			},
			[]string{"reason"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2},
			},
			[]string{"method", "route", "code"},
		),
		gatherer: reg,
	}
}

func (m *Metrics) BookingAttempt(outcome string) {
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) BookingRetry() {
	m.BookingRetries.Inc()
}

func (m *Metrics) StatusTransition(to domain.ReservationStatus) {
	m.StatusTransitions.WithLabelValues(string(to)).Inc()
}

func (m *Metrics) NotificationDropped(reason string) {
	m.NotificationsDropped.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
