// Package main provides the entry point for the lakepath catalog API
// service. The API exposes REST endpoints for namespace and table
// management over a warehouse directory tree.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/janovincze/lakepath/internal/api"
	"github.com/janovincze/lakepath/internal/catalog"
	"github.com/janovincze/lakepath/internal/config"
	"github.com/janovincze/lakepath/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// backendReadiness probes the warehouse root through the storage backend.
type backendReadiness struct {
	backend storage.Backend
	root    string
}

func (r *backendReadiness) Ready(ctx context.Context) error {
	if _, err := r.backend.Exists(ctx, r.root); err != nil {
		return fmt.Errorf("warehouse root unreachable: %w", err)
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting lakepath API",
		"version", cfg.Version,
		"backend", cfg.Storage.Backend,
		"warehouse", cfg.Catalog.WarehouseRoot)

	backend, err := storage.Open(cfg.Storage.Backend, storage.Options{
		Endpoint:       cfg.Storage.Endpoint,
		AccessKey:      cfg.Storage.AccessKey,
		SecretKey:      cfg.Storage.SecretKey,
		Region:         cfg.Storage.Region,
		UseSSL:         cfg.Storage.UseSSL,
		WriteChecksum:  cfg.Storage.WriteChecksum,
		VerifyChecksum: cfg.Storage.VerifyChecksum,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("open storage backend: %w", err)
	}

	cat, err := catalog.New(catalog.Config{
		Name:                     cfg.Catalog.Name,
		WarehouseRoot:            cfg.Catalog.WarehouseRoot,
		Backend:                  backend,
		SuppressPermissionErrors: cfg.Catalog.SuppressPermissionErrors,
		PermissionErrorMatch:     cfg.Catalog.PermissionErrorMatch,
	}, logger)
	if err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}

	serverCfg := api.DefaultServerConfig(cfg, logger)
	serverCfg.Catalog = cat
	serverCfg.Readiness = &backendReadiness{backend: backend, root: cfg.Catalog.WarehouseRoot}
	serverCfg.CORSConfig.AllowedOrigins = cfg.API.CORSOrigins
	serverCfg.RateLimitConfig.RequestsPerSecond = cfg.API.RateLimitRPS
	serverCfg.RateLimitConfig.BurstSize = cfg.API.RateLimitBurst

	server := api.NewServer(serverCfg)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer shutdownCancel()
		return server.Stop(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
