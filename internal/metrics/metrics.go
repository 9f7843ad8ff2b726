// Package metrics registers the Prometheus collectors exposed on /metrics.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"billed/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billed_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "billed_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	billsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billed_bills_submitted_total",
			Help: "Bills submitted, by expense type.",
		},
		[]string{"type"},
	)

	billsExported = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billed_bills_exported_total",
			Help: "Ledger export attempts, by result.",
		},
		[]string{"result"},
	)

	listCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billed_list_cache_lookups_total",
			Help: "Bill listing cache lookups, by result.",
		},
		[]string{"result"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and durations.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)

		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// ObserveListCache counts one listing cache lookup.
func ObserveListCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	listCacheLookups.WithLabelValues(result).Inc()
}

// ObserveExport counts one ledger export attempt.
func ObserveExport(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	billsExported.WithLabelValues(result).Inc()
}

// SubmissionCounter is a services.Notifier that counts submitted bills.
type SubmissionCounter struct{}

func (SubmissionCounter) BillSubmitted(_ context.Context, b core.Bill) error {
	billsSubmitted.WithLabelValues(b.Type).Inc()
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// normalizePath folds file paths into one label.
func normalizePath(path string) string {
	if strings.HasPrefix(path, "/files/") {
		return "/files/{name}"
	}
	if strings.HasPrefix(path, "/static/") {
		return "/static/{asset}"
	}
	return path
}
