package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fasilkom-dev/siakad-api/internal/config"
	"github.com/fasilkom-dev/siakad-api/internal/handler"
)

func newHealthTestApp(probes map[string]handler.Probe) *fiber.App {
	cfg := config.Config{AppName: "SIAKAD API", AppEnv: "test"}
	app := fiber.New()
	app.Get("/health", handler.HealthCheck(cfg, probes))
	return app
}

func TestHealthCheckReportsComponentReadiness(t *testing.T) {
	app := newHealthTestApp(map[string]handler.Probe{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return nil },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                   `json:"success"`
		Data    handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.True(t, body.Success)
	require.Equal(t, "ok", body.Data.Status)
	require.Equal(t, "SIAKAD API", body.Data.Service)
	require.Equal(t, "test", body.Data.Environment)
	require.Equal(t, "ok", body.Data.Components["database"])
	require.Equal(t, "ok", body.Data.Components["cache"])
}

func TestHealthCheckDegradesWhenProbeFails(t *testing.T) {
	app := newHealthTestApp(map[string]handler.Probe{
		"database": func(context.Context) error { return nil },
		"cache":    func(context.Context) error { return errors.New("connection refused") },
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.Equal(t, "degraded", body.Data.Status)
	require.Equal(t, "ok", body.Data.Components["database"])
	require.Equal(t, "unavailable", body.Data.Components["cache"])
}

func TestHealthCheckWithoutProbes(t *testing.T) {
	app := newHealthTestApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Data handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)

	require.Equal(t, "ok", body.Data.Status)
	require.Nil(t, body.Data.Components)
}
