package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/pin-extract-go/api/handlers"
	"github.com/yourusername/pin-extract-go/api/middleware"
	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
	"github.com/yourusername/pin-extract-go/pkg/logger"
)

// RouterDeps are the services the HTTP API is built on
type RouterDeps struct {
	Scheduler   *app.Scheduler
	HarvestMgr  *app.HarvestManager
	Jobs        domain.JobRepository
	LogsDir     string
	MultiLogger *logger.MultiLogger
	Logger      *zap.Logger
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log, deps.MultiLogger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Scheduler)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		batchHandler := handlers.NewBatchHandler(deps.Scheduler, deps.HarvestMgr, log)
		v1.POST("/batches", batchHandler.SubmitBatch)
		v1.POST("/downloads", batchHandler.Download)
		v1.GET("/stats", batchHandler.GetStats)
		v1.POST("/cancel", batchHandler.Cancel)

		harvestHandler := handlers.NewHarvestHandler(deps.HarvestMgr)
		v1.POST("/scan", harvestHandler.Scan)
		v1.POST("/harvest", harvestHandler.Harvest)

		if deps.Jobs != nil {
			jobHandler := handlers.NewJobHandler(deps.Jobs)
			v1.GET("/jobs", jobHandler.ListJobs)
		}

		eventHandler := handlers.NewEventWebSocketHandler(deps.Scheduler, log)
		v1.GET("/events", eventHandler.HandleWebSocket)

		// Log endpoints
		if deps.LogsDir != "" {
			logHandler := handlers.NewLogHandler(deps.LogsDir)
			logs := v1.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router
}
