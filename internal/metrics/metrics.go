package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "birthday_http_request_duration_seconds",
			Help:    "Histogram of response durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	// NotificationOutcomes counts send attempts by what caused them and how they ended.
	NotificationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_notification_outcomes_total",
			Help: "Number of notification attempts by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)

	NotificationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "birthday_notification_duration_seconds",
			Help:    "Duration of outbound notification calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "birthday_scan_duration_seconds",
			Help:    "Duration of the daily birthday scan",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
	)

	ScanMatchedUsers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "birthday_scan_matched_users_total",
			Help: "Number of users whose birthday matched during a scan",
		},
	)

	// SchedulerSkippedTicks counts matching ticks that did not start a scan.
	SchedulerSkippedTicks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "birthday_scheduler_skipped_ticks_total",
			Help: "Number of scheduler ticks skipped by reason",
		},
		[]string{"reason"},
	)
)

func Init() {
	prometheus.MustRegister(
		HTTPRequests,
		RequestDuration,
		NotificationOutcomes,
		NotificationDuration,
		ScanDuration,
		ScanMatchedUsers,
		SchedulerSkippedTicks,
	)
}
