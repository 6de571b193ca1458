package job

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tabaani/jobqueue/common"
	"github.com/tabaani/jobqueue/internal/dto"
	"github.com/tabaani/jobqueue/middleware"
)

type JobHandler struct {
	service JobServiceInterface
}

func NewJobHandler(s JobServiceInterface) *JobHandler {
	return &JobHandler{service: s}
}

var _ JobHandlerInterface = (*JobHandler)(nil)

// Create handles HTTP requests for enqueuing a new job. It binds and
// validates the request body, delegates to the JobService, and returns
// HTTP 201 with the stored job on success.
func (h *JobHandler) Create(c *gin.Context) {
	var req dto.JobCreateDTO

	if !middleware.Bind(c, &req) {
		c.Abort()
		return
	}

	resp, err := h.service.CreateJob(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Get handles HTTP requests to fetch a job by its ID.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetJobByID(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// List handles HTTP requests to retrieve jobs for a queue, optionally
// filtered by status (?queue=email&status=failed).
func (h *JobHandler) List(c *gin.Context) {
	queue := c.Query("queue")
	if queue == "" {
		c.Error(common.Errf(http.StatusBadRequest, "queue parameter is required"))
		return
	}

	jobs, err := h.service.ListJobs(c.Request.Context(), queue, c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Retry handles HTTP requests to requeue a failed job. Returns HTTP 204
// on success, 409 when the job is not in a failed state.
func (h *JobHandler) Retry(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.RetryJob(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id < 1 {
		c.Error(common.Errf(http.StatusBadRequest, "invalid ID"))
		return 0, false
	}
	return uint(id), true
}
