// Package api wires the HTTP surface: middleware, handlers and static files.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-dispatch/internal/api/handlers"
	"battery-dispatch/internal/api/middleware"
	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"
	"battery-dispatch/internal/data"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine for the given settings and run store.
func NewRouter(settings *config.Server, store *data.RunStore, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	router := gin.New()
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.CORS())

	dispatch := handlers.NewDispatchHandler(store, settings.BatteryDir, handlers.Limits{
		Workers:    settings.Workers,
		MaxPeriods: settings.MaxPeriods,
		MaxCells:   settings.MaxCells,
	}, logger)
	batteries := handlers.NewBatteryHandler(settings.BatteryDir, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "runs": store.Len()})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/solve", dispatch.Solve)
		v1.GET("/runs/:id/ledger", dispatch.GetLedger)
		v1.POST("/compare", dispatch.Compare)

		v1.GET("/batteries", batteries.ListBatteries)
		v1.GET("/strategies", handlers.ListStrategies)

		v1.GET("/scenario", handlers.GenerateScenario)
		v1.POST("/potential", handlers.Potential)
	}

	serveStatic(router, settings.StaticDir, logger)
	return router
}

// serveStatic serves a single-page app from dir when it exists. Unknown
// non-API paths fall back to index.html.
func serveStatic(router *gin.Engine, dir string, logger *zap.Logger) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	}
	if dir == "" {
		router.NoRoute(notFound)
		return
	}
	if _, err := os.Stat(dir); err != nil {
		logger.Info("static directory not found, skipping static file serving", zap.String("dir", dir))
		router.NoRoute(notFound)
		return
	}

	router.Static("/assets", filepath.Join(dir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(dir, "favicon.ico"))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
	logger.Info("serving static files", zap.String("dir", dir))
}
