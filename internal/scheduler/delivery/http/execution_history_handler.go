package http

import (
	"net/http"
	"strconv"

	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/service"
	"golang-stock-indicator/pkg/logger"

	"github.com/labstack/echo/v4"
)

const defaultHistoryLimit = 50

// ExecutionHistoryHandler handles HTTP requests for execution history.
type ExecutionHistoryHandler struct {
	historyService service.ExecutionHistoryService
	logger         *logger.Logger
}

// NewExecutionHistoryHandler creates a new ExecutionHistoryHandler.
func NewExecutionHistoryHandler(historyService service.ExecutionHistoryService, log *logger.Logger) *ExecutionHistoryHandler {
	return &ExecutionHistoryHandler{historyService: historyService, logger: log}
}

// RegisterRoutes registers the execution history routes to the Echo group.
func (h *ExecutionHistoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.GetExecutionHistories)
	g.GET("/:id", h.GetExecutionHistoryByID)
}

// RegisterJobRoutes registers the job-specific execution history routes.
func (h *ExecutionHistoryHandler) RegisterJobRoutes(g *echo.Group) {
	g.GET("/:id/executions", h.GetExecutionHistoriesByJobID)
}

// GetExecutionHistories godoc
// @Summary List recent executions
// @Description Newest first, with run summary counts
// @Tags executions
// @Produce  json
// @Param   limit  query   int false  "Maximum rows (default 50)"
// @Success 200 {array} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /executions [get]
func (h *ExecutionHistoryHandler) GetExecutionHistories(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return badRequest(c, "Invalid limit")
		}
		limit = n
	}

	histories, err := h.historyService.GetRecentExecutionHistories(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get execution histories"})
	}
	return c.JSON(http.StatusOK, histories)
}

// GetExecutionHistoryByID godoc
// @Summary Get an execution by ID
// @Tags executions
// @Produce  json
// @Param   id  path    int true    "Execution History ID"
// @Success 200 {object} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /executions/{id} [get]
func (h *ExecutionHistoryHandler) GetExecutionHistoryByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid history ID")
	}

	history, err := h.historyService.GetExecutionHistoryByID(c.Request().Context(), uint(id))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, history)
}

// GetExecutionHistoriesByJobID godoc
// @Summary Get executions of a job
// @Tags jobs
// @Produce  json
// @Param   id  path    int true    "Job ID"
// @Success 200 {array} dto.ExecutionHistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /jobs/{id}/executions [get]
func (h *ExecutionHistoryHandler) GetExecutionHistoriesByJobID(c echo.Context) error {
	jobID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	histories, err := h.historyService.GetExecutionHistoriesByJobID(c.Request().Context(), uint(jobID))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, histories)
}
