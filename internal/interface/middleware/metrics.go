package middleware

import (
	"expvar"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	httpRequests  = expvar.NewMap("http_requests")
	httpStatuses  = expvar.NewMap("http_responses_by_status")
	httpLatencyMs = expvar.NewMap("http_latency_ms_total")
)

// Metrics counts requests per route and responses per status class, published on /api/debug/vars.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		route = c.Request.Method + " " + route
		httpRequests.Add(route, 1)
		httpStatuses.Add(strconv.Itoa(c.Writer.Status()/100)+"xx", 1)
		httpLatencyMs.Add(route, time.Since(start).Milliseconds())
	}
}
