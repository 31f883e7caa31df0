package http

import (
	"net/http"
	"strconv"

	"golang-stock-indicator/internal/scheduler/dto"
	"golang-stock-indicator/internal/scheduler/service"
	"golang-stock-indicator/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JobHandler handles HTTP requests for jobs.
type JobHandler struct {
	jobService service.JobService
	logger     *logger.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService service.JobService, log *logger.Logger) *JobHandler {
	return &JobHandler{jobService: jobService, logger: log}
}

// RegisterRoutes registers the job routes to the Echo group.
func (h *JobHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.CreateJob)
	g.GET("", h.GetAllJobs)
	g.GET("/:id", h.GetJobByID)
	g.POST("/:id/trigger", h.TriggerJob)
}

// CreateJob godoc
// @Summary Create a new job
// @Description Create a pipeline, screening or market stats job with its cron schedules
// @Tags jobs
// @Accept  json
// @Produce  json
// @Param   job  body    dto.CreateJobRequest   true    "Job to create"
// @Success 201 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c echo.Context) error {
	var req dto.CreateJobRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request payload")
	}

	jobResponse, err := h.jobService.CreateJob(c.Request().Context(), &req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusCreated, jobResponse)
}

// GetJobByID godoc
// @Summary Get a job by ID
// @Tags jobs
// @Produce  json
// @Param   id  path    int true    "Job ID"
// @Success 200 {object} dto.JobResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJobByID(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	jobResponse, err := h.jobService.GetJobByID(c.Request().Context(), uint(id))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusOK, jobResponse)
}

// GetAllJobs godoc
// @Summary Get all jobs
// @Tags jobs
// @Produce  json
// @Success 200 {array} dto.JobResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /jobs [get]
func (h *JobHandler) GetAllJobs(c echo.Context) error {
	jobs, err := h.jobService.GetAllJobs(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to get all jobs", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to get jobs"})
	}
	return c.JSON(http.StatusOK, jobs)
}

// TriggerJob godoc
// @Summary Trigger a job now
// @Description Queue one execution of the job for the executor, independent of its schedules
// @Tags jobs
// @Produce  json
// @Param   id  path    int true    "Job ID"
// @Success 202 {object} dto.TriggerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /jobs/{id}/trigger [post]
func (h *JobHandler) TriggerJob(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return badRequest(c, "Invalid job ID")
	}

	resp, err := h.jobService.TriggerJob(c.Request().Context(), uint(id))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(http.StatusAccepted, resp)
}
