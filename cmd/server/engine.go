package main

import (
	"github.com/erp/pos-backend/internal/infrastructure/config"
	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"github.com/erp/pos-backend/internal/interfaces/http/handler"
	"github.com/erp/pos-backend/internal/interfaces/http/middleware"
	"github.com/erp/pos-backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// newEngine builds the gin engine with the middleware stack and every route
func newEngine(cfg *config.Config, log *zap.Logger, inventory handler.InventoryService, health handler.HealthChecker) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	// Order matters: the request logger must run first so Recovery and every
	// handler see the request-scoped logger and id.
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.HTTP.AllowOrigins)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodyBytes))

	engine.GET("/health", handler.NewHealthHandler(health, log).Check)

	inventoryRoutes := handler.NewInventoryHandler(inventory, log).Routes()
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(inventoryRoutes).
		Setup()

	for _, r := range inventoryRoutes.Routes() {
		log.Debug("Route registered",
			zap.String("group", inventoryRoutes.Name()),
			zap.String("method", r.Method),
			zap.String("path", r.Path),
		)
	}

	return engine
}
