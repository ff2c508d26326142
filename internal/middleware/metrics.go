package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide HTTP metrics collector. The collector
// registers on the default Prometheus registry, so it is created once and
// the application's own metrics are served from the same /metrics endpoint.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.NewWithRegistry(prometheus.DefaultRegisterer, serviceName, "http", "", nil)
	})
	return prom
}

// MetricsMiddleware records request counts and latencies, skipping the scrape endpoint itself.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == "/metrics" {
			return c.Next()
		}
		return p.Middleware(c)
	}
}
