package backend

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coinwallet_backend_requests_total",
		Help: "Backend requests by method, path and http status",
	}, []string{"method", "path", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coinwallet_backend_request_duration_seconds",
		Help:    "Backend request latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

func observe(method, path, code string, start time.Time) {
	requestsTotal.WithLabelValues(method, path, code).Inc()
	requestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
}
