package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Conceptual-Machines/magda-composer/internal/logger"
	"github.com/Conceptual-Machines/magda-composer/internal/store"
)

const healthTimeout = 2 * time.Second

type HealthHandler struct {
	store store.CompositionStore
}

func NewHealthHandler(compositions store.CompositionStore) *HealthHandler {
	return &HealthHandler{store: compositions}
}

// HealthCheck returns the health status of the API and its store
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		logger.Warn("Health check failed", logger.Fields{"error": err.Error()})
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": gin.H{"status": "unreachable"},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": gin.H{"status": "ok"},
	})
}
