package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	protectRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protect_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	protectRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "protect_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	protectScoreCalculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "protect_score_calculations_total",
		Help: "Total score calculations by mode (commit or preview).",
	}, []string{"mode"})

	protectTotalScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "protect_total_score",
		Help:    "Distribution of committed total scores.",
		Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90},
	})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		protectRequestsTotal.WithLabelValues(method, path, status).Inc()
		protectRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordScoreCalculation records one engine run by mode.
func RecordScoreCalculation(mode string) {
	protectScoreCalculationsTotal.WithLabelValues(mode).Inc()
}

// ObserveTotalScore records a committed total score.
func ObserveTotalScore(total int) {
	protectTotalScore.Observe(float64(total))
}
