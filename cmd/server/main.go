package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skinlens/backend/config"
	httpDelivery "github.com/skinlens/backend/internal/delivery/http"
	"github.com/skinlens/backend/internal/domain"
	"github.com/skinlens/backend/internal/infrastructure/beautyfacts"
	"github.com/skinlens/backend/internal/infrastructure/cache"
	"github.com/skinlens/backend/internal/infrastructure/store"
	"github.com/skinlens/backend/internal/pkg/logger"
	"github.com/skinlens/backend/internal/usecase"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging.Mode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", "error", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting SkinLens Backend",
		"version", "1.0.0",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"database", cfg.Database.Driver,
		"cache", cfg.Cache.Type)

	// Storage
	db, err := store.Open(store.Config{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.Database.DSN,
		AutoMigrate: cfg.Database.AutoMigrate,
		LogQueries:  cfg.Scoring.Debug,
	}, log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := store.Close(db); err != nil {
			log.Warn("Database close failed", "error", err)
		}
	}()

	knowledgeRepo := store.NewKnowledgeRepo(db, log)
	if cfg.Database.SeedFile != "" {
		seeded, err := store.Seed(ctx, knowledgeRepo, cfg.Database.SeedFile, true)
		if err != nil {
			return fmt.Errorf("seed knowledge base: %w", err)
		}
		if seeded {
			log.Info("Knowledge base seeded", "file", cfg.Database.SeedFile)
		}
	}

	knowledgeService := usecase.NewKnowledgeService(knowledgeRepo, log)
	if _, err := knowledgeService.Reload(ctx); err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}

	// Cache
	analysisCache, closeCache, err := newCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	// Barcode lookup is optional; without it barcode scans return 502
	var lookup domain.ProductLookupClient
	if cfg.Lookup.Enabled {
		client := beautyfacts.NewClient(beautyfacts.Config{
			BaseURL:           cfg.Lookup.BaseURL,
			Timeout:           cfg.Lookup.Timeout,
			RequestsPerSecond: float64(cfg.RateLimit.Lookup) / 3600.0,
			FailureThreshold:  cfg.Lookup.BreakerFailures,
		}, log)
		client.SetDebug(cfg.Scoring.Debug)
		lookup = client
		log.Info("Product lookup configured", "base_url", cfg.Lookup.BaseURL, "per_hour", cfg.RateLimit.Lookup)
	} else {
		log.Warn("Product lookup disabled, barcode scans will fail")
	}

	// Initialize usecase layer
	scanService := usecase.NewScanService(
		analysisCache,
		store.NewAnalysisRepo(db, log),
		lookup,
		knowledgeService,
		log,
		usecase.ScanServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			BatchConcurrency:   cfg.Scoring.BatchConcurrency,
			EnableDebugLogging: cfg.Scoring.Debug,
		},
	)
	recommendationService := usecase.NewRecommendationService(
		store.NewAnalysisRepo(db, log),
		store.NewRecommendationRepo(db, log),
		knowledgeService,
		log,
		usecase.RecommendationServiceConfig{
			DefaultLimit:       cfg.Scoring.DefaultLimit,
			MaxLimit:           cfg.Scoring.MaxLimit,
			EnableDebugLogging: cfg.Scoring.Debug,
		},
	)

	handler := httpDelivery.NewHandler(scanService, recommendationService, knowledgeService, log)
	router := httpDelivery.SetupRouter(cfg, handler, log)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		log.Info("Server stopped gracefully")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// newCache builds the analysis cache selected by configuration
func newCache(cfg *config.Config, log *logger.Logger) (domain.CacheRepository, func(), error) {
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{URL: cfg.Cache.RedisURL}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return rc, func() { _ = rc.Close() }, nil
	default:
		mc := cache.NewMemoryCache()
		return mc, func() { _ = mc.Close() }, nil
	}
}
