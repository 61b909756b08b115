package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler serves the Prometheus scrape endpoint through the Fiber
// adaptor, making sure the workflow collectors are registered first.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()

	handler := promhttp.Handler()
	return adaptor.HTTPHandler(handler)
}
