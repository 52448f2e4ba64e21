package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/pin-extract-go/internal/app"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	scheduler *app.Scheduler
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(scheduler *app.Scheduler) *HealthHandler {
	return &HealthHandler{scheduler: scheduler}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Scheduler struct {
		State       app.State `json:"state"`
		QueueLength int       `json:"queueLength"`
	} `json:"scheduler"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: Version,
	}
	response.Scheduler.State = h.scheduler.State()
	response.Scheduler.QueueLength = h.scheduler.QueueLength()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.scheduler.Closed() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "scheduler stopped",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
