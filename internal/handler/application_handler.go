package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/dto"
	"github.com/fasilkom-dev/siakad-api/internal/middleware"
	"github.com/fasilkom-dev/siakad-api/internal/service"
	"github.com/fasilkom-dev/siakad-api/internal/utils"
)

// ApplicationHandler manages the submission and review endpoints.
type ApplicationHandler struct {
	service service.ApplicationService
	logger  zerolog.Logger
}

// NewApplicationHandler builds an application handler instance.
func NewApplicationHandler(service service.ApplicationService, logger zerolog.Logger) *ApplicationHandler {
	return &ApplicationHandler{
		service: service,
		logger:  logger.With().Str("component", "application_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ApplicationHandler) Register(router fiber.Router) {
	router.Post("", middleware.RequireRole(middleware.RoleStudent), h.submit)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Patch("/:id/review", middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin), h.review)
	router.Patch("/:id/notes", middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin), h.annotate)
	router.Post("/:id/complete", middleware.RequireRole(middleware.RoleAdmin), h.complete)
}

func (h *ApplicationHandler) submit(c *fiber.Ctx) error {
	var payload dto.ApplicationSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	// Students submit on their own behalf; the token is authoritative.
	if id := userIDFromContext(c); id != 0 {
		payload.StudentID = id
	}

	application, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "application submitted", application)
}

func (h *ApplicationHandler) list(c *fiber.Ctx) error {
	filter := dto.ApplicationFilter{Search: c.Query("q")}

	if studentID, err := parseQueryUint(c, "student_id"); err == nil && studentID != nil {
		filter.StudentID = studentID
	}
	if category := c.Query("category"); category != "" {
		filter.Category = &category
	}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}

	// Students only ever see their own records.
	if userRoleFromContext(c) == middleware.RoleStudent {
		id := userIDFromContext(c)
		filter.StudentID = &id
	}

	applications, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "applications retrieved", applications)
}

func (h *ApplicationHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	application, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	if userRoleFromContext(c) == middleware.RoleStudent && application.StudentID != userIDFromContext(c) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	return utils.SendSuccess(c, "application retrieved", application)
}

func (h *ApplicationHandler) review(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	var payload dto.ApplicationReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	application, err := h.service.Review(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "application reviewed", application)
}

func (h *ApplicationHandler) annotate(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	var payload dto.ApplicationNotesRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	application, err := h.service.Annotate(c.UserContext(), id, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "notes updated", application)
}

func (h *ApplicationHandler) complete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	application, err := h.service.Complete(c.UserContext(), id, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "application completed", application)
}

func (h *ApplicationHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	var blocked *service.SubmissionBlockedError
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.As(err, &blocked):
		return utils.SendError(c, fiber.StatusConflict, blocked.Reason)
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
