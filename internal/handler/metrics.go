package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/metrics"
)

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Fiber returns strings backed by the fasthttp buffer, which handlers
		// may reuse; copy before c.Next().
		path := strings.Clone(c.Path())
		method := strings.Clone(c.Method())
		endpoint := sanitizeEndpoint(path)

		metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint normalizes paths to avoid label cardinality explosion.
func sanitizeEndpoint(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/reviews/toilet/"):
		return "/api/reviews/toilet/:externalId"
	case path == "/api/toilets/hidden":
		return path
	case strings.HasPrefix(path, "/api/toilets/"):
		rest := strings.TrimPrefix(path, "/api/toilets/")
		if _, action, ok := strings.Cut(rest, "/"); ok {
			return "/api/toilets/:id/" + action
		}
		return "/api/toilets/:id"
	case path == "/api/users/me":
		return path
	case strings.HasPrefix(path, "/api/users/"):
		return "/api/users/:externalId/role"
	default:
		return path
	}
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
