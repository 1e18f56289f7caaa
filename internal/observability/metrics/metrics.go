package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarydesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "librarydesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	borrowAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarydesk_borrow_attempts_total",
		Help: "Borrow attempts by result",
	}, []string{"result"})

	returnAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarydesk_return_attempts_total",
		Help: "Return attempts by result",
	}, []string{"result"})

	lateFeesCharged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "librarydesk_late_fees_charged_total",
		Help: "Sum of late fees charged on returns",
	})

	activeLoans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "librarydesk_active_loans",
		Help: "Number of borrow records without a return date",
	})

	reportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarydesk_report_runs_total",
		Help: "Monthly report generations by result",
	}, []string{"result"})

	rateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "librarydesk_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"scope"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveBorrow counts a borrow attempt
func ObserveBorrow(result string) {
	borrowAttempts.WithLabelValues(result).Inc()
}

// ObserveReturn counts a return attempt and adds the fee charged.
func ObserveReturn(result string, fee float64) {
	returnAttempts.WithLabelValues(result).Inc()
	if fee > 0 {
		lateFeesCharged.Add(fee)
	}
}

// IncrementActiveLoans increments the active loan gauge.
func IncrementActiveLoans() {
	activeLoans.Inc()
}

// DecrementActiveLoans decrements the active loan gauge.
func DecrementActiveLoans() {
	activeLoans.Dec()
}

// SetActiveLoans sets the active loan gauge to a counted value.
func SetActiveLoans(count int) {
	if count < 0 {
		count = 0
	}
	activeLoans.Set(float64(count))
}

// ObserveReport counts a monthly report run
func ObserveReport(result string) {
	reportRuns.WithLabelValues(result).Inc()
}

// ObserveRateLimited counts a rejected request for the limiter scope
func ObserveRateLimited(scope string) {
	rateLimited.WithLabelValues(scope).Inc()
}
