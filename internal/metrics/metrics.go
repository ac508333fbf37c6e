package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursedeck_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coursedeck_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	EnrollmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursedeck_enrollments_total",
			Help: "Total number of course enrollments",
		},
		[]string{"course"},
	)

	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coursedeck_submissions_total",
			Help: "Total number of assignment submissions",
		},
		[]string{"course", "status"},
	)
)

// Middleware records request counts and latencies per matched route.
func Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}

		status := strconv.Itoa(ctx.Writer.Status())

		RequestsTotal.WithLabelValues(path, ctx.Request.Method, status).Inc()
		RequestDuration.WithLabelValues(path, ctx.Request.Method).Observe(time.Since(start).Seconds())
	}
}
