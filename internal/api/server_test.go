package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/janovincze/lakepath/internal/api/models"
	"github.com/janovincze/lakepath/internal/catalog"
	"github.com/janovincze/lakepath/internal/config"
	"github.com/janovincze/lakepath/internal/storage"
)

func TestServer_HealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", response.Status)
	}
}

func TestServer_LivenessEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.LivenessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "alive" {
		t.Errorf("expected status 'alive', got '%s'", response.Status)
	}
}

func TestServer_ReadinessEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.ReadinessResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", response.Status)
	}
}

func TestServer_VersionEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/version", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.VersionResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Version != "0.1.0-test" {
		t.Errorf("expected version '0.1.0-test', got '%s'", response.Version)
	}

	if response.APIVersion != "v1" {
		t.Errorf("expected api_version 'v1', got '%s'", response.APIVersion)
	}
}

func TestServer_ConfigEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var response models.ConfigResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Environment != "test" {
		t.Errorf("expected environment 'test', got '%s'", response.Environment)
	}

	if response.Catalog.StorageBackend != "posix" {
		t.Errorf("expected storage_backend 'posix', got '%s'", response.Catalog.StorageBackend)
	}
}

func TestServer_EndpointsWithoutCatalog(t *testing.T) {
	// When no catalog is configured, namespace/table endpoints are not
	// registered and should return 404.
	server := newTestServerWithoutCatalog(t)

	endpoints := []string{
		"/api/v1/namespaces",
		"/api/v1/namespaces/db/tables",
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, endpoint, nil)
			w := httptest.NewRecorder()

			server.Router().ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
			}
		})
	}
}

func TestServer_RequestID(t *testing.T) {
	server := newTestServer(t)

	// Test without X-Request-ID header (should generate one)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	requestID := w.Header().Get("X-Request-ID")
	if requestID == "" {
		t.Error("expected X-Request-ID header to be set")
	}

	// Test with X-Request-ID header (should use provided value)
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "test-request-id")
	w = httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	requestID = w.Header().Get("X-Request-ID")
	if requestID != "test-request-id" {
		t.Errorf("expected X-Request-ID 'test-request-id', got '%s'", requestID)
	}
}

func TestServer_CatalogLifecycle(t *testing.T) {
	server := newTestServer(t)
	router := server.Router()

	do := func(method, path, body string) *httptest.ResponseRecorder {
		t.Helper()
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(method, path, nil)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// Create a nested namespace.
	w := do(http.MethodPost, "/api/v1/namespaces", `{"namespace":"analytics.daily"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create namespace: status %d, body %s", w.Code, w.Body.String())
	}

	// Creating it again conflicts.
	w = do(http.MethodPost, "/api/v1/namespaces", `{"namespace":"analytics.daily"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate namespace: status %d, want %d", w.Code, http.StatusConflict)
	}

	// Namespace metadata carries the derived location.
	w = do(http.MethodGet, "/api/v1/namespaces/analytics.daily", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get namespace: status %d", w.Code)
	}
	var ns models.NamespaceResponse
	if err := json.NewDecoder(w.Body).Decode(&ns); err != nil {
		t.Fatal(err)
	}
	if ns.Location != "analytics/daily" {
		t.Errorf("namespace location = %q, want %q", ns.Location, "analytics/daily")
	}

	// Create a table under it.
	w = do(http.MethodPost, "/api/v1/namespaces/analytics.daily/tables", `{"name":"events"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create table: status %d, body %s", w.Code, w.Body.String())
	}
	var tbl models.TableResponse
	if err := json.NewDecoder(w.Body).Decode(&tbl); err != nil {
		t.Fatal(err)
	}
	if tbl.Location != "analytics/daily/events" {
		t.Errorf("table location = %q, want %q", tbl.Location, "analytics/daily/events")
	}

	// A custom location is rejected.
	w = do(http.MethodPost, "/api/v1/namespaces/analytics.daily/tables",
		`{"name":"other","location":"custom/spot"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("custom location: status %d, want %d", w.Code, http.StatusBadRequest)
	}

	// Missing table is a 404.
	w = do(http.MethodGet, "/api/v1/namespaces/analytics.daily/tables/absent", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing table: status %d, want %d", w.Code, http.StatusNotFound)
	}

	// Rename is not implemented.
	w = do(http.MethodPost, "/api/v1/tables/rename", `{"from":"a.t","to":"a.u"}`)
	if w.Code != http.StatusNotImplemented {
		t.Errorf("rename: status %d, want %d", w.Code, http.StatusNotImplemented)
	}

	// Dropping a non-empty namespace conflicts.
	w = do(http.MethodDelete, "/api/v1/namespaces/analytics.daily", "")
	if w.Code != http.StatusConflict {
		t.Errorf("drop non-empty namespace: status %d, want %d", w.Code, http.StatusConflict)
	}

	// Drop the table, then the namespace.
	w = do(http.MethodDelete, "/api/v1/namespaces/analytics.daily/tables/events", "")
	if w.Code != http.StatusOK {
		t.Fatalf("drop table: status %d, body %s", w.Code, w.Body.String())
	}

	w = do(http.MethodDelete, "/api/v1/namespaces/analytics.daily", "")
	if w.Code != http.StatusOK {
		t.Errorf("drop namespace: status %d, body %s", w.Code, w.Body.String())
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Version:     "0.1.0-test",
		Environment: "test",
		Catalog: config.CatalogConfig{
			Name: "test",
		},
		Storage: config.StorageConfig{
			Backend: "posix",
		},
		API: config.APIConfig{
			ListenAddr:     ":8080",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			CORSOrigins:    []string{"*"},
			RateLimitRPS:   100,
			RateLimitBurst: 200,
		},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Suppress logs during tests
	}))

	cfg := testConfig()
	cfg.Catalog.WarehouseRoot = t.TempDir()

	cat, err := catalog.New(catalog.Config{
		Name:          cfg.Catalog.Name,
		WarehouseRoot: cfg.Catalog.WarehouseRoot,
		Backend:       storage.NewPosixBackend(logger),
	}, logger)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}

	serverCfg := DefaultServerConfig(cfg, logger)
	serverCfg.Catalog = cat

	return NewServer(serverCfg)
}

func newTestServerWithoutCatalog(t *testing.T) *Server {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	return NewServer(DefaultServerConfig(testConfig(), logger))
}
