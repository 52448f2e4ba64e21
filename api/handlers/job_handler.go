package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/pin-extract-go/internal/domain"
)

// JobHandler serves persisted job outcomes
type JobHandler struct {
	repo domain.JobRepository
}

// NewJobHandler creates a new job handler
func NewJobHandler(repo domain.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

// ListJobs handles GET /api/v1/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	var (
		records []*domain.JobRecord
		err     error
	)
	if batchID := c.Query("batch"); batchID != "" {
		records, err = h.repo.FindByBatch(batchID)
	} else {
		limit, convErr := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if convErr != nil || limit < 1 {
			limit = 50
		}
		if limit > 1000 {
			limit = 1000
		}
		records, err = h.repo.FindRecent(limit)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load jobs"})
		return
	}

	summary, err := h.repo.Summary()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job summary"})
		return
	}

	if records == nil {
		records = []*domain.JobRecord{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"jobs":    records,
		"summary": summary,
	})
}
