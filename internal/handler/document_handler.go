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

// DocumentHandler manages the per-application document endpoints.
type DocumentHandler struct {
	service service.DocumentService
	logger  zerolog.Logger
}

// NewDocumentHandler builds a document handler instance.
func NewDocumentHandler(service service.DocumentService, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register attaches the routes to the provided application-scoped group.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Post("/:id/documents", h.attach)
	router.Get("/:id/documents", h.list)
	router.Patch("/:id/documents/:docID/status", middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin), h.setStatus)
}

func (h *DocumentHandler) attach(c *fiber.Ctx) error {
	applicationID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	payload := dto.DocumentAttachRequest{
		Type:   c.FormValue("type"),
		Status: c.FormValue("status"),
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}

	document, err := h.service.Attach(c.UserContext(), applicationID, payload, file, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "document attached", document)
}

func (h *DocumentHandler) list(c *fiber.Ctx) error {
	applicationID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	documents, err := h.service.List(c.UserContext(), applicationID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "documents retrieved", documents)
}

func (h *DocumentHandler) setStatus(c *fiber.Ctx) error {
	applicationID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid id")
	}

	documentID, err := parseUintParam(c, "docID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid document id")
	}

	var payload dto.DocumentStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	document, err := h.service.SetStatus(c.UserContext(), applicationID, documentID, payload, activityActorFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "document status updated", document)
}

func (h *DocumentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrApplicationNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "application not found")
	case errors.Is(err, service.ErrDocumentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "document not found")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
