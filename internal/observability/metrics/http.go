package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMiddleware records request counts and latencies. The route label is the
// route template, or "unmatched" for requests that fell through to the
// catch-all, so that probing arbitrary paths cannot grow label cardinality.
// A nil reg returns a pass-through middleware.
func HTTPMiddleware(reg prometheus.Registerer) gin.HandlerFunc {
	if reg == nil {
		return func(c *gin.Context) { c.Next() }
	}

	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kanban_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "route", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kanban_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	reg.MustRegister(requestsTotal, requestDuration)

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method

		requestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
