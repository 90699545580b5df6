package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janovincze/lakepath/internal/api/models"
	"github.com/janovincze/lakepath/internal/config"
)

// ConfigHandler handles configuration endpoints.
type ConfigHandler struct {
	cfg *config.Config
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetConfig returns a safe subset of the system configuration.
// GET /api/v1/config
//
// SECURITY WARNING: This endpoint exposes configuration to unauthenticated users.
// Only include non-sensitive configuration values here. Never expose:
// - Database passwords or connection strings
// - API keys or secrets
// - Storage credentials
// - Internal hostnames or IPs that could aid attackers
func (h *ConfigHandler) GetConfig(c *gin.Context) {
	// Return only safe, non-sensitive configuration
	response := models.ConfigResponse{
		Environment: h.cfg.Environment,
		Catalog: models.CatalogConfig{
			Name:           h.cfg.Catalog.Name,
			WarehouseRoot:  h.cfg.Catalog.WarehouseRoot,
			StorageBackend: h.cfg.Storage.Backend,
		},
		API: models.APIConfig{
			ListenAddr: h.cfg.API.ListenAddr,
		},
		Metrics: models.MetricConfig{
			Enabled: h.cfg.Metrics.Enabled,
			Path:    h.cfg.Metrics.Path,
		},
	}

	c.JSON(http.StatusOK, response)
}
