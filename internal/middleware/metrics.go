package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics observes request latency by method, route and status
func RequestMetrics(reg prometheus.Registerer) fiber.Handler {
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "movie_quiz",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := strconv.Itoa(c.Response().StatusCode())
		if err != nil {
			// the error handler writes the response after this middleware returns
			status = "error"
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = strconv.Itoa(fiberErr.Code)
			}
		}
		duration.WithLabelValues(c.Method(), c.Route().Path, status).
			Observe(time.Since(start).Seconds())
		return err
	}
}
