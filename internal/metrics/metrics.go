package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_http_in_flight_requests",
			Help: "Requests currently being served.",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_login_attempts_total",
			Help: "Login attempts by outcome.",
		},
		[]string{"outcome"},
	)

	ReportsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_reports_submitted_total",
			Help: "Audit reports stored, by state and condition level.",
		},
		[]string{"state", "condition"},
	)

	ReportsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_reports_resolved_total",
			Help: "Audit reports resolved by a supervisor.",
		},
	)

	NotificationsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_notifications_failed_total",
			Help: "Resolution notifications that could not be published.",
		},
	)
)
