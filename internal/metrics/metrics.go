package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskmanager"

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// method: password | otp, result: success | failure | inactive
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Login attempts by method and result.",
	}, []string{"method", "result"})

	OTPIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_issued_total",
		Help:      "One-time codes persisted and handed to the mailer.",
	})

	OTPDeliveryFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_delivery_failures_total",
		Help:      "One-time codes the mailer failed to deliver.",
	})

	RateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limit_rejected_total",
		Help:      "Requests rejected by a rate limiter.",
	}, []string{"scope"})

	WorkerRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_runs_total",
		Help:      "Background worker iterations by worker and result.",
	}, []string{"worker", "result"})

	WorkerAffectedRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "worker_affected_rows_total",
		Help:      "Rows changed by background workers.",
	}, []string{"worker"})
)
