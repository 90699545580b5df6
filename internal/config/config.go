// Package config provides configuration loading and management for lakepath services.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for lakepath services.
type Config struct {
	// Version is the application version
	Version string

	// Environment is the deployment environment (development, staging, production)
	Environment string

	// Catalog configuration
	Catalog CatalogConfig

	// Storage backend configuration
	Storage StorageConfig

	// API configuration
	API APIConfig

	// Metrics configuration
	Metrics MetricsConfig
}

// CatalogConfig holds catalog and warehouse configuration.
type CatalogConfig struct {
	// Name identifies the catalog in logs and API responses
	Name string

	// WarehouseRoot is the absolute base location of the warehouse tree,
	// e.g. "s3://lake/warehouse" or "/data/warehouse"
	WarehouseRoot string

	// SuppressPermissionErrors treats permission-denied listings as
	// non-directories instead of failing the classification
	SuppressPermissionErrors bool

	// PermissionErrorMatch is an error-message substring that also counts
	// as a permission error when SuppressPermissionErrors is enabled
	PermissionErrorMatch string
}

// StorageConfig holds storage backend configuration.
type StorageConfig struct {
	// Backend selects the registered storage backend ("posix" or "s3")
	Backend string

	// Endpoint is the S3/MinIO endpoint
	Endpoint string

	// AccessKey is the access key
	AccessKey string

	// SecretKey is the secret key
	SecretKey string

	// Region is the S3 region
	Region string

	// UseSSL enables SSL for the connection
	UseSSL bool

	// WriteChecksum sends content checksums on upload
	WriteChecksum bool

	// VerifyChecksum verifies content checksums on download
	VerifyChecksum bool
}

// APIConfig holds API server configuration.
type APIConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration

	// ShutdownTimeout is how long to wait for in-flight requests on shutdown
	ShutdownTimeout time.Duration

	// CORSOrigins is a list of allowed CORS origins (use "*" for all)
	CORSOrigins []string

	// RateLimitRPS is the rate limit in requests per second
	RateLimitRPS float64

	// RateLimitBurst is the maximum burst size for rate limiting
	RateLimitBurst int
}

// MetricsConfig holds metrics/observability configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection
	Enabled bool

	// Path is the HTTP path serving the Prometheus endpoint
	Path string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Version:     getEnv("LAKEPATH_VERSION", "0.1.0"),
		Environment: getEnv("LAKEPATH_ENV", "development"),

		Catalog: CatalogConfig{
			Name:                     getEnv("LAKEPATH_CATALOG_NAME", "lakepath"),
			WarehouseRoot:            getEnv("LAKEPATH_WAREHOUSE_ROOT", ""),
			SuppressPermissionErrors: getBoolEnv("LAKEPATH_SUPPRESS_PERMISSION_ERRORS", false),
			PermissionErrorMatch:     getEnv("LAKEPATH_PERMISSION_ERROR_MATCH", "AuthorizationPermissionMismatch"),
		},

		Storage: StorageConfig{
			Backend:        getEnv("LAKEPATH_STORAGE_BACKEND", "posix"),
			Endpoint:       getEnv("LAKEPATH_STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey:      getEnv("LAKEPATH_STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey:      getEnv("LAKEPATH_STORAGE_SECRET_KEY", "minioadmin"),
			Region:         getEnv("LAKEPATH_STORAGE_REGION", "us-east-1"),
			UseSSL:         getBoolEnv("LAKEPATH_STORAGE_USE_SSL", false),
			WriteChecksum:  getBoolEnv("LAKEPATH_STORAGE_WRITE_CHECKSUM", true),
			VerifyChecksum: getBoolEnv("LAKEPATH_STORAGE_VERIFY_CHECKSUM", true),
		},

		API: APIConfig{
			ListenAddr:      getEnv("LAKEPATH_API_LISTEN_ADDR", ":8080"),
			ReadTimeout:     getDurationEnv("LAKEPATH_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("LAKEPATH_API_WRITE_TIMEOUT", 15*time.Second),
			ShutdownTimeout: getDurationEnv("LAKEPATH_API_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getSliceEnv("LAKEPATH_API_CORS_ORIGINS", []string{"*"}),
			RateLimitRPS:    getFloatEnv("LAKEPATH_API_RATE_LIMIT_RPS", 100),
			RateLimitBurst:  getIntEnv("LAKEPATH_API_RATE_LIMIT_BURST", 200),
		},

		Metrics: MetricsConfig{
			Enabled: getBoolEnv("LAKEPATH_METRICS_ENABLED", true),
			Path:    getEnv("LAKEPATH_METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. The warehouse root is
// the one setting with no workable default.
func (c *Config) Validate() error {
	if c.Catalog.WarehouseRoot == "" {
		return fmt.Errorf("config: LAKEPATH_WAREHOUSE_ROOT must be set")
	}
	if c.Storage.Backend == "" {
		return fmt.Errorf("config: LAKEPATH_STORAGE_BACKEND must not be empty")
	}
	if c.API.RateLimitRPS <= 0 {
		return fmt.Errorf("config: LAKEPATH_API_RATE_LIMIT_RPS must be positive")
	}
	if c.API.RateLimitBurst <= 0 {
		return fmt.Errorf("config: LAKEPATH_API_RATE_LIMIT_BURST must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, p := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}
