// Package api exposes the simulation engine over HTTP.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bess-dispatch/internal/api/handlers"
	"bess-dispatch/internal/api/middleware"
	"bess-dispatch/internal/backtest"
	"bess-dispatch/internal/logger"
	"bess-dispatch/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Engine     *backtest.Engine
	Store      store.Store
	Log        logger.Logger
	BatteryDir string
	Workers    int
	// MaxBodySize caps request bodies in bytes; 0 disables the cap.
	MaxBodySize int64
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.NopLogger{}
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()

	// Apply middleware
	router.Use(middleware.CORS(d.AllowedOrigins...))
	router.Use(middleware.Logger(d.Log))
	router.Use(middleware.ErrorHandler(d.Log))
	if d.MaxBodySize > 0 {
		router.Use(func(c *gin.Context) {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.MaxBodySize)
			c.Next()
		})
	}

	// Initialize handlers
	backtestHandler := handlers.NewBacktestHandler(d.Engine, d.Store, d.Log, d.BatteryDir, d.Workers)
	batteryHandler := handlers.NewBatteryHandler(d.BatteryDir, d.Log)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))

	// API routes
	api := router.Group("/api/v1")
	{
		api.POST("/simulate", backtestHandler.Simulate)
		api.POST("/compare", backtestHandler.Compare)
		api.POST("/batch", backtestHandler.Batch)
		api.GET("/results/:id", backtestHandler.GetResult)
		api.GET("/results/:id/ledger", backtestHandler.GetLedger)

		api.GET("/batteries", batteryHandler.ListBatteries)
		api.GET("/policies", handlers.ListPolicies)

		api.POST("/profile", handlers.Profile)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "Not found"}})
	})
	return router
}
