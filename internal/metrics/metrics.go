package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by handler.",
		},
		[]string{"handler"},
	)

	availabilityRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "availability_requests_total",
			Help:      "Count of slot availability lookups.",
		},
	)

	turnoCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "turno_created_total",
			Help:      "Count of appointments created by status.",
		},
		[]string{"status"},
	)

	bookingConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "booking_conflicts_total",
			Help:      "Count of bookings rejected by the submission-time re-check.",
		},
	)

	reminderOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "reminder_outcomes_total",
			Help:      "Count of reminder sends by outcome.",
		},
		[]string{"outcome"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "turnero",
			Name:      "availability_cache_lookups_total",
			Help:      "Availability cache lookups by result.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests, availabilityRequests, turnoCreated,
			bookingConflicts, reminderOutcomes, cacheLookups,
		)
	})
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}

func IncAvailabilityRequest() {
	availabilityRequests.Inc()
}

func IncTurnoCreated(status string) {
	turnoCreated.WithLabelValues(status).Inc()
}

func IncBookingConflict() {
	bookingConflicts.Inc()
}

func IncReminderOutcome(outcome string) {
	reminderOutcomes.WithLabelValues(outcome).Inc()
}

func IncCacheLookup(result string) {
	cacheLookups.WithLabelValues(result).Inc()
}
