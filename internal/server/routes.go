// Package server configures the HTTP server and routes.
package server

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fleveque/counter-service/internal/config"
	"github.com/fleveque/counter-service/internal/handler"
	"github.com/fleveque/counter-service/internal/middleware"
	"github.com/fleveque/counter-service/internal/service"
)

// Deps are the already-constructed pieces the routes need.
type Deps struct {
	CounterService *service.CounterService
}

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Dependencies are passed explicitly; each handler gets exactly what it needs.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler(deps.CounterService, logger)
	counterHandler := handler.NewCounterHandler(deps.CounterService, logger)

	// CORS runs on the engine rather than the /api group: preflight requests
	// hit no registered route and only engine-level middleware sees them.
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.JSONBody())

	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/count", counterHandler.GetCount)
		api.POST("/count/increment", counterHandler.Increment)
		api.GET("/history", counterHandler.History)
	}
}
