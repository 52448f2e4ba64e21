package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/pin-extract-go/internal/app"
)

// HarvestHandler handles page scanning and harvesting
type HarvestHandler struct {
	harvestMgr *app.HarvestManager
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(harvestMgr *app.HarvestManager) *HarvestHandler {
	return &HarvestHandler{harvestMgr: harvestMgr}
}

// PageRequest names one page, or several for a multi-page scan
type PageRequest struct {
	URL  string   `json:"url"`
	URLs []string `json:"urls"`
}

// Scan handles POST /api/v1/scan
func (h *HarvestHandler) Scan(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.URLs) > 0 {
		scans, err := h.harvestMgr.ScanPages(c.Request.Context(), req.URLs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"pages": scans})
		return
	}

	if req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url or urls is required"})
		return
	}
	scan, err := h.harvestMgr.ScanPage(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// Harvest handles POST /api/v1/harvest
func (h *HarvestHandler) Harvest(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	result, err := h.harvestMgr.HarvestPage(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "started",
		"batchId":    result.BatchID,
		"queueSize":  result.QueueSize,
		"found":      result.Found,
		"folderName": result.Folder,
		"page":       result.Page,
	})
}
