package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/crosslist/backend/internal/application/registration"
	"github.com/crosslist/backend/internal/domain/job"
)

// JobHandler exposes the job tracker.
type JobHandler struct {
	BaseHandler
	tracker *registration.Tracker
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(tracker *registration.Tracker) *JobHandler {
	return &JobHandler{tracker: tracker}
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid job id")
		return
	}

	j, err := h.tracker.GetJob(jobID)
	if err != nil {
		if errors.Is(err, registration.ErrJobNotFound) {
			h.NotFound(c, "job not found")
			return
		}
		h.Internal(c, "failed to load job")
		return
	}
	h.Success(c, "", j)
}

// jobListResponse pairs the page of jobs with the paging echo.
type jobListResponse struct {
	Jobs  []*job.Job `json:"jobs"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

// List handles GET /jobs with optional status, page and limit query params.
func (h *JobHandler) List(c *gin.Context) {
	filter := registration.ListFilter{
		Page:  parseIntQuery(c, "page", 1),
		Limit: parseIntQuery(c, "limit", 20),
	}
	if status := c.Query("status"); status != "" {
		s := job.Status(status)
		if !s.IsValid() {
			h.BadRequest(c, "invalid status filter")
			return
		}
		filter.Status = s
	}

	jobs := h.tracker.ListJobs(filter)
	h.Success(c, "", jobListResponse{
		Jobs:  jobs,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
