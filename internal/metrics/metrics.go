package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserba",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserba",
			Name:      "bookings_created_total",
			Help:      "Bookings created by creator role.",
		},
		[]string{"role"},
	)

	autoRejections = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserba",
			Name:      "auto_rejections_total",
			Help:      "Resident bookings displaced by official bookings.",
		},
	)

	violations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserba",
			Name:      "fake_receipt_violations_total",
			Help:      "Recorded fake receipt violations.",
		},
	)

	bans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserba",
			Name:      "user_bans_total",
			Help:      "Users permanently banned.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, autoRejections, violations, bans)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

func IncBookingCreated(role string) {
	bookingsCreated.WithLabelValues(role).Inc()
}

func IncAutoRejections(n int) {
	autoRejections.Add(float64(n))
}

func IncViolation() {
	violations.Inc()
}

func IncBan() {
	bans.Inc()
}
