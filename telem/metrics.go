package telem

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequests counts finished requests by route template, method and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	LoginRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_requests_by_status_total",
			Help: "Total number of login requests by account kind and status",
		},
		[]string{"kind", "status"},
	)

	OTPIssued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "Total number of one-time codes emailed",
		},
		[]string{"purpose"},
	)

	OTPChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otp_checks_total",
			Help: "Total number of one-time code checks by outcome",
		},
		[]string{"purpose", "outcome"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to reg. Later calls are no-ops.
func Register(reg prometheus.Registerer) {
	registerOnce.Do(func() {
		reg.MustRegister(HTTPRequests, HTTPDuration, LoginRequests, OTPIssued, OTPChecks)
	})
}
