package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/middleware"
	"github.com/fasilkom-dev/siakad-api/internal/service"
)

// RevalidationHandler streams view invalidation events to portal clients over SSE.
type RevalidationHandler struct {
	revalidator service.Revalidator
	logger      zerolog.Logger
	timeout     time.Duration
}

// NewRevalidationHandler constructs a handler instance.
func NewRevalidationHandler(revalidator service.Revalidator, logger zerolog.Logger, timeout time.Duration) *RevalidationHandler {
	return &RevalidationHandler{
		revalidator: revalidator,
		logger:      logger.With().Str("component", "revalidation_handler").Logger(),
		timeout:     timeout,
	}
}

// Register binds the revalidation routes.
func (h *RevalidationHandler) Register(router fiber.Router) {
	router.Get("/stream", h.stream)
}

func (h *RevalidationHandler) stream(c *fiber.Ctx) error {
	scope := c.Query("scope", service.ScopeAll)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))
	ctx, cancel := context.WithCancel(ctx)

	stream, cleanup := h.revalidator.Subscribe(scope)

	keepAliveInterval := h.timeout
	if keepAliveInterval <= 0 {
		keepAliveInterval = 30 * time.Second
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cleanup()
			cancel()
		}()

		ticker := time.NewTicker(keepAliveInterval / 2)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-stream:
				if !ok {
					return
				}
				if err := writeRevalidationEvent(w, event); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write revalidation event")
					return
				}
			case <-ticker.C:
				if err := writeKeepAlive(w); err != nil {
					h.logger.Debug().Err(err).Msg("failed to write revalidation keepalive")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

func writeRevalidationEvent(w *bufio.Writer, event dto.RevalidationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "event: revalidate\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	return w.Flush()
}

func writeKeepAlive(w *bufio.Writer) error {
	if _, err := fmt.Fprintf(w, ": keep-alive %s\n\n", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return err
	}
	return w.Flush()
}
