package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fasilkom-dev/siakad-api/internal/config"
	"github.com/fasilkom-dev/siakad-api/internal/utils"
)

// Probe checks readiness of one backing dependency, such as the workflow
// store or the cache.
type Probe func(ctx context.Context) error

// HealthResponse reports overall service health plus per-component
// readiness.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Components  map[string]string `json:"components,omitempty"`
}

// HealthCheck reports liveness and runs the readiness probes, so monitoring
// can tell a healthy pod from one whose database or cache went away.
func HealthCheck(cfg config.Config, probes map[string]Probe) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		if len(probes) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()

			payload.Components = make(map[string]string, len(probes))
			for name, probe := range probes {
				if err := probe(ctx); err != nil {
					payload.Components[name] = "unavailable"
					payload.Status = "degraded"
					continue
				}
				payload.Components[name] = "ok"
			}
		}

		return utils.SendSuccess(c, "service health reported", payload)
	}
}
