package middleware

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/sokowatt/sokowatt-web/internal/observability/telemetry"
)

// RequestMetrics counts handled requests per route and status.
func RequestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}
		telemetry.HTTPRequests.WithLabelValues(
			route,
			strconv.Itoa(c.Response().StatusCode()),
		).Inc()
		return err
	}
}
