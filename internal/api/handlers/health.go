// Package handlers provides HTTP handlers for API endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/janovincze/lakepath/internal/api/models"
)

// ReadinessChecker reports whether the service can reach its storage
// backend.
type ReadinessChecker interface {
	Ready(ctx context.Context) error
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	checker ReadinessChecker
}

// NewHealthHandler creates a new HealthHandler. checker may be nil, in
// which case readiness always succeeds.
func NewHealthHandler(checker ReadinessChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// GetHealth returns the overall health status.
// GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// GetLiveness returns the liveness status.
// GET /health/live
func (h *HealthHandler) GetLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, models.LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now(),
	})
}

// GetReadiness returns the readiness status.
// GET /health/ready
func (h *HealthHandler) GetReadiness(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, models.ReadinessResponse{
				Status:    "not_ready",
				Timestamp: time.Now(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, models.ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now(),
	})
}
