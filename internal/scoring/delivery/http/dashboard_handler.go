package http

import (
	"errors"
	"net/http"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/service"
	"prediction-scoreboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler handles HTTP requests for per-user summaries.
type DashboardHandler struct {
	dashboardService service.DashboardService
	logger           *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, logger: logger}
}

// RegisterRoutes registers the dashboard routes to the Echo group.
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/:id/summary", h.GetSummary)
}

// GetSummary godoc
// @Summary Get a user's dashboard summary
// @Description Get aggregates and recent predictions for one user
// @Tags dashboard
// @Produce  json
// @Param   id  path    string true    "User ID"
// @Success 200 {object} dto.DashboardSummary
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /users/{id}/summary [get]
func (h *DashboardHandler) GetSummary(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid user ID"})
	}

	summary, err := h.dashboardService.Summarize(c.Request().Context(), userID)
	if err != nil {
		// Integrity details stay internal; the API surface only says
		// the user was not found.
		if errors.Is(err, entity.ErrUnknownUser) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "User not found"})
		}
		h.logger.Error("Failed to summarize user", logger.ErrorField(err), logger.StringField("user_id", userID))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get summary"})
	}

	return c.JSON(http.StatusOK, summary)
}
