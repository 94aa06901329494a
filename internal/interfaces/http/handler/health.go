package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/pos-backend/internal/infrastructure/logger"
	"github.com/erp/pos-backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthChecker reports on the primary store
type HealthChecker interface {
	Ping(ctx context.Context) error
	Stats() persistence.ConnectionStats
}

// HealthHandler serves the liveness probe
type HealthHandler struct {
	db     HealthChecker
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{db: db, logger: logger}
}

// Check handles GET /health. A failed ping answers 503 so load balancers
// stop routing here; pool stats are included either way.
func (h *HealthHandler) Check(c *gin.Context) {
	status, code, database := "healthy", http.StatusOK, "ok"
	if err := h.db.Ping(c.Request.Context()); err != nil {
		logger.L(c.Request.Context(), h.logger).Warn("Health check failed", zap.Error(err))
		status, code, database = "unhealthy", http.StatusServiceUnavailable, "error"
	}

	c.JSON(code, gin.H{
		"status":   status,
		"time":     time.Now().Format(time.RFC3339),
		"database": database,
		"pool":     h.db.Stats(),
	})
}
