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

	"github.com/basketlens/backend/config"
	httpDelivery "github.com/basketlens/backend/internal/delivery/http"
	"github.com/basketlens/backend/internal/domain"
	"github.com/basketlens/backend/internal/infrastructure/cache"
	"github.com/basketlens/backend/internal/infrastructure/checkjebon"
	"github.com/basketlens/backend/internal/usecase"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := config.SetupLogger(cfg)
	logger.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Dur("catalog_ttl", cfg.Catalog.TTL).
		Msg("starting BasketLens backend v1.0.0")

	// Initialize infrastructure dependencies
	store, err := cache.Open(context.Background(), cache.Options{
		Type:       cfg.Cache.Type,
		Dir:        cfg.Cache.Dir,
		SQLitePath: cfg.Cache.SQLitePath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open cache")
	}
	defer store.Close()

	catalogClient := checkjebon.NewClient(checkjebon.ClientConfig{
		URL:             cfg.Catalog.URL,
		UserAgent:       cfg.Catalog.UserAgent,
		Timeout:         cfg.Catalog.Timeout,
		RequestsPerHour: cfg.Catalog.RequestsPerHour,
	}, logger)
	logger.Info().Str("url", cfg.Catalog.URL).Msg("catalog configured")

	// Initialize usecase layer
	catalogService := usecase.NewCatalogService(store, catalogClient, usecase.CatalogServiceConfig{
		CacheTTL: cfg.Catalog.TTL,
	}, logger)

	basketService := usecase.NewBasketService(catalogService, usecase.BasketServiceConfig{
		Matcher: usecase.MatcherConfig{
			PurchasedMarker: cfg.Matching.PurchasedMarker,
			TieThreshold:    cfg.Matching.TieThreshold,
		},
		ShareBaseURL:       cfg.Share.BaseURL,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	}, logger)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(basketService, httpDelivery.PlanDefaults{
		Strategy:       domain.Strategy(cfg.Optimizer.DefaultStrategy),
		MaxVisits:      cfg.Optimizer.DefaultMaxVisits,
		MaxVisitsLimit: cfg.Optimizer.MaxVisitsLimit,
	}, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("listen")
		}
	}()

	// Warm the cache so the first request does not wait for the download
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Catalog.Timeout)
		defer cancel()
		if _, err := catalogService.Snapshot(ctx); err != nil {
			logger.Warn().Err(err).Msg("catalog warm-up failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	logger.Info().Msg("bye")
}
