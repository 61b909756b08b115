package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/service"
	"github.com/fasilkom-dev/siakad-api/internal/utils"
)

// ActivityHandler serves the audit trail listing for administrators.
type ActivityHandler struct {
	service service.ActivityService
	logger  zerolog.Logger
}

// NewActivityHandler builds an activity handler instance.
func NewActivityHandler(service service.ActivityService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		service: service,
		logger:  logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	filter := dto.ActivityFilter{
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
	}

	if page, err := parseQueryInt(c, "page"); err == nil {
		filter.Page = page
	}
	if pageSize, err := parseQueryInt(c, "page_size"); err == nil {
		filter.PageSize = pageSize
	}
	if actorID, err := parseQueryUint(c, "actor_id"); err == nil && actorID != nil {
		filter.ActorID = actorID
	}

	activities, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		}
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "activities retrieved", activities)
}
