package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dossier",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by module, method and status code.",
		},
		[]string{"module", "method", "code"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dossier",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by module and method.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"module", "method"},
	)
)

// RequestsTotal exposes the request counter for inspection.
func RequestsTotal() *prometheus.CounterVec {
	return requestsTotal
}

// statusRecorder captures the status code and body size for Logger and
// Metrics. Unwrap keeps http.ResponseController working through it.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.written += int64(n)
	return n, err
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Metrics returns middleware that records request counts and latency
// labelled with module.
func Metrics(module string) Func {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			requestsTotal.WithLabelValues(module, r.Method, strconv.Itoa(rec.status)).Inc()
			requestDuration.WithLabelValues(module, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}
