package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studioslot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_reservations_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	ReservationCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_reservation_cancellations_total",
			Help: "Total number of cancelled reservations",
		},
	)

	NotificationsDeliveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_notifications_delivered_total",
			Help: "Reservation notifications delivered to staff sessions",
		},
	)

	NotificationSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studioslot_notification_subscribers",
			Help: "Staff sessions subscribed to the reservation feed",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studioslot_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studioslot_email_queue_length",
			Help: "Current length of the email queue",
		},
	)

	MembershipsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studioslot_memberships_granted_total",
			Help: "Total number of memberships granted",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

func RecordCancellation() {
	ReservationCancellationsTotal.Inc()
}

func RecordNotificationDelivered() {
	NotificationsDeliveredTotal.Inc()
}

func SetNotificationSubscribers(n int) {
	NotificationSubscribers.Set(float64(n))
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordMembershipGranted() {
	MembershipsGrantedTotal.Inc()
}
