package http

import (
	"errors"
	"net/http"
	"strconv"

	"prediction-scoreboard/internal/entity"
	"prediction-scoreboard/internal/scoring/dto"
	"prediction-scoreboard/internal/scoring/service"
	"prediction-scoreboard/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PredictionHandler handles HTTP requests for the prediction ledger.
type PredictionHandler struct {
	scoringService service.ScoringService
	sweepService   service.SweepService
	logger         *logger.Logger
}

// NewPredictionHandler creates a new PredictionHandler.
func NewPredictionHandler(scoringService service.ScoringService, sweepService service.SweepService, logger *logger.Logger) *PredictionHandler {
	return &PredictionHandler{scoringService: scoringService, sweepService: sweepService, logger: logger}
}

// RegisterRoutes registers the prediction routes to the Echo group.
func (h *PredictionHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.RecordPrediction)
	g.GET("/:id", h.GetPrediction)
}

// RegisterSweepRoutes registers the manual sweep trigger.
func (h *PredictionHandler) RegisterSweepRoutes(g *echo.Group) {
	g.POST("", h.TriggerSweep)
}

// RecordPrediction godoc
// @Summary Record a prediction
// @Description Record a forecast emitted by a script execution
// @Tags predictions
// @Accept  json
// @Produce  json
// @Param   prediction  body    dto.RecordPredictionRequest   true    "Prediction to record"
// @Success 201 {object} dto.PredictionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /predictions [post]
func (h *PredictionHandler) RecordPrediction(c echo.Context) error {
	var req dto.RecordPredictionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}

	resp, err := h.scoringService.RecordPrediction(c.Request().Context(), &req)
	if err != nil {
		if errors.Is(err, entity.ErrInvalidPrediction) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		}
		h.logger.Error("Failed to record prediction", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to record prediction"})
	}

	return c.JSON(http.StatusCreated, resp)
}

// GetPrediction godoc
// @Summary Get a prediction
// @Description Get a single prediction by its ID
// @Tags predictions
// @Produce  json
// @Param   id  path    int true    "Prediction ID"
// @Success 200 {object} dto.PredictionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /predictions/{id} [get]
func (h *PredictionHandler) GetPrediction(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid prediction ID"})
	}

	resp, err := h.scoringService.GetPrediction(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrPredictionNotFound) {
			return c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "Prediction not found"})
		}
		h.logger.Error("Failed to get prediction", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get prediction"})
	}

	return c.JSON(http.StatusOK, resp)
}

// TriggerSweep godoc
// @Summary Trigger a resolution sweep
// @Description Run one sweep over due pending predictions immediately
// @Tags sweep
// @Produce  json
// @Success 200 {object} map[string]int
// @Failure 500 {object} dto.ErrorResponse
// @Router /sweep [post]
func (h *PredictionHandler) TriggerSweep(c echo.Context) error {
	published, err := h.sweepService.ProcessSweep(c.Request().Context())
	if err != nil {
		h.logger.Error("Manual sweep failed", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Sweep failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"published": published})
}
