package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assess_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "assess_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"method", "route"})

	runsStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assess_runs_started_total",
		Help: "Assessment runs started",
	})

	runsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assess_runs_finalized_total",
		Help: "Assessment runs finalized by gender",
	}, []string{"gender"})

	runsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assess_runs_rejected_total",
		Help: "Rejected assessment operations by reason",
	}, []string{"reason"})
)

// metricsMiddleware registra conteo y latencia por ruta. Usa la ruta
// registrada (c.FullPath) para no explotar la cardinalidad con ids.
func metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
