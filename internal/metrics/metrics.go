// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ReservationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_reservations_total",
		Help: "Seat reservations accepted.",
	})

	ReservationsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_reservations_expired_total",
		Help: "Reservations reclaimed by the expiry sweeper.",
	})

	SessionsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_sessions_started_total",
		Help: "Billed sessions started.",
	})

	SessionsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_sessions_settled_total",
		Help: "Sessions settled through the billing engine.",
	})

	RevenueTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_revenue_total",
		Help: "Revenue settled, in the smallest currency unit.",
	})

	SweepErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lanhall_sweep_errors_total",
		Help: "Storage errors encountered by the expiry sweeper.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lanhall_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

// Handler returns the /metrics endpoint handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Middleware records request latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}
