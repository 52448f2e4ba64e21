package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
)

// BatchHandler exposes the scheduler over HTTP
type BatchHandler struct {
	scheduler  *app.Scheduler
	harvestMgr *app.HarvestManager
	logger     *zap.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(scheduler *app.Scheduler, harvestMgr *app.HarvestManager, logger *zap.Logger) *BatchHandler {
	return &BatchHandler{
		scheduler:  scheduler,
		harvestMgr: harvestMgr,
		logger:     logger,
	}
}

// SubmitBatchRequest is a list of references bound for one folder
type SubmitBatchRequest struct {
	Items      []domain.MediaReference `json:"items"`
	FolderName string                  `json:"folderName"`
}

// SubmitBatch handles POST /api/v1/batches
func (h *BatchHandler) SubmitBatch(c *gin.Context) {
	var req SubmitBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.scheduler.SubmitBatch(app.Batch{Items: req.Items, Folder: req.FolderName})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":    "started",
		"batchId":   res.BatchID,
		"queueSize": res.QueueSize,
	})
}

// DownloadRequest names either a resolved media URL or an element on a page
type DownloadRequest struct {
	MediaURL string `json:"mediaUrl"`
	Filename string `json:"filename"`
	PageURL  string `json:"pageUrl"`
	Selector string `json:"selector"`
}

// Download handles POST /api/v1/downloads
func (h *BatchHandler) Download(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PageURL != "" && req.Selector != "" {
		ref, err := h.harvestMgr.DownloadFromPage(c.Request.Context(), req.PageURL, req.Selector)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "download_started", "mediaUrl": ref.SourceURL})
		return
	}

	ref := domain.MediaReference{SourceURL: req.MediaURL, SuggestedFilename: req.Filename}
	if err := h.harvestMgr.DownloadSingle(ref); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "download_started"})
}

// StatsResponse reports the current batch and single-item counters
type StatsResponse struct {
	Stats       domain.Stats `json:"stats"`
	Single      domain.Stats `json:"single"`
	State       app.State    `json:"state"`
	QueueLength int          `json:"queueLength"`
	BatchID     string       `json:"batchId,omitempty"`
}

// GetStats handles GET /api/v1/stats
func (h *BatchHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, StatsResponse{
		Stats:       h.scheduler.Stats(),
		Single:      h.scheduler.SingleStats(),
		State:       h.scheduler.State(),
		QueueLength: h.scheduler.QueueLength(),
		BatchID:     h.scheduler.BatchID(),
	})
}

// Cancel handles POST /api/v1/cancel
func (h *BatchHandler) Cancel(c *gin.Context) {
	dropped := h.scheduler.Cancel()
	h.logger.Info("Downloads cancelled", zap.Int("dropped", dropped))

	c.JSON(http.StatusOK, gin.H{
		"status":  "downloads_canceled",
		"dropped": dropped,
	})
}
