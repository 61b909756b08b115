package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/fasilkom-dev/siakad-api/internal/middleware"
	"github.com/fasilkom-dev/siakad-api/internal/service"
	"github.com/fasilkom-dev/siakad-api/internal/utils"
)

// DashboardHandler serves the aggregated portal views.
type DashboardHandler struct {
	service service.DashboardService
	logger  zerolog.Logger
}

// NewDashboardHandler builds a dashboard handler instance.
func NewDashboardHandler(service service.DashboardService, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("/student", middleware.RequireRole(middleware.RoleStudent), h.student)
	router.Get("/staff", middleware.RequireRole(middleware.RoleStaff, middleware.RoleAdmin), h.staff)
}

func (h *DashboardHandler) student(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	dashboard, err := h.service.StudentDashboard(c.UserContext(), studentID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build student dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) staff(c *fiber.Ctx) error {
	dashboard, err := h.service.StaffDashboard(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to build staff dashboard")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}
