package models

import "time"

// VersionResponse contains version information.
type VersionResponse struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
	GoVersion  string `json:"go_version,omitempty"`
	BuildTime  string `json:"build_time,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
}

// ConfigResponse contains safe configuration information.
type ConfigResponse struct {
	Environment string        `json:"environment"`
	Catalog     CatalogConfig `json:"catalog"`
	API         APIConfig     `json:"api"`
	Metrics     MetricConfig  `json:"metrics,omitempty"`
}

// CatalogConfig contains catalog configuration (safe subset).
type CatalogConfig struct {
	Name           string `json:"name"`
	WarehouseRoot  string `json:"warehouse_root"`
	StorageBackend string `json:"storage_backend"`
}

// APIConfig contains API configuration (safe subset).
type APIConfig struct {
	ListenAddr string `json:"listen_addr"`
}

// MetricConfig contains metrics configuration.
type MetricConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// HealthResponse represents the overall health status.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ListResponse is a generic list response.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}
