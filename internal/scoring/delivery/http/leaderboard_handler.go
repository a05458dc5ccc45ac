package http

import (
	"net/http"
	"strconv"

	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/service"
	"prediction-scoreboard/pkg/common"
	"prediction-scoreboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultLeaderboardLimit = 50

// LeaderboardHandler handles HTTP requests for the leaderboard.
type LeaderboardHandler struct {
	leaderboardService service.LeaderboardService
	logger             *logger.Logger
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService service.LeaderboardService, logger *logger.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService, logger: logger}
}

// RegisterRoutes registers the leaderboard routes to the Echo group.
func (h *LeaderboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetLeaderboard)
}

// GetLeaderboard godoc
// @Summary Get the leaderboard
// @Description Get the ranked leaderboard snapshot with pagination
// @Tags leaderboard
// @Produce  json
// @Param   limit   query   int     false   "Page size"
// @Param   offset  query   int     false   "Page offset"
// @Param   force   query   bool    false   "Bypass the snapshot cache"
// @Success 200 {object} dto.LeaderboardSnapshot
// @Failure 500 {object} dto.ErrorResponse
// @Router /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c echo.Context) error {
	limit := defaultLeaderboardLimit
	if v := c.QueryParam("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid limit"})
		}
		limit = parsed
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid offset"})
		}
		offset = parsed
	}
	force := c.QueryParam("force") == "true"

	snapshot, err := h.leaderboardService.Snapshot(c.Request().Context(), limit, offset, force)
	if err != nil {
		h.logger.Error("Failed to compute leaderboard", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get leaderboard"})
	}

	// Mark the calling user's own row when the auth layer passed a
	// resolved identity along.
	if userID := c.Request().Header.Get(common.HeaderUserID); userID != "" {
		for i := range snapshot.Entries {
			if snapshot.Entries[i].UserID == userID {
				snapshot.Entries[i].IsCurrentUser = true
			}
		}
	}

	return c.JSON(http.StatusOK, snapshot)
}
