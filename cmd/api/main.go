package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bistro-checkout/internal/checkout"
	"bistro-checkout/internal/client"
	"bistro-checkout/internal/config"
	"bistro-checkout/internal/database"
	"bistro-checkout/internal/handler"
	"bistro-checkout/internal/ingredient"
	"bistro-checkout/internal/metrics"
	"bistro-checkout/internal/pricing"
	"bistro-checkout/internal/repository"
	"bistro-checkout/internal/router"
	"bistro-checkout/internal/service"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const evictionInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting bistro-checkout API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Pricing defaults: S3 document with local file fallback
	fileLoader := pricing.NewFileLoader(logger)
	var s3Loader pricing.Loader
	if cfg.S3.Enabled {
		s3Loader, err = pricing.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
			s3Loader = nil
		}
	} else {
		logger.Info().Msg("using local file system for pricing defaults (S3 disabled)")
	}
	defaults := pricing.LoadDefaults(ctx, pricing.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger), cfg.Pricing.DefaultsPath, logger)

	healthChecks := make(map[string]handler.HealthCheck)

	// Submission log
	var (
		submissions repository.SubmissionRepository
		recorder    checkout.SubmissionRecorder
	)
	if cfg.Database.Enabled {
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer pool.Close()

		submissions = repository.NewSubmissionRepository(pool, logger)
		if err := submissions.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to prepare submission log: %w", err)
		}
		recorder = submissions
		healthChecks["database"] = pool.Ping
	} else {
		logger.Info().Msg("submission log disabled")
	}

	// Shared ingredient price store
	var priceStore ingredient.PriceStore
	if cfg.Redis.Enabled {
		rdb, err := ingredient.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, ingredient prices cached per session only")
		} else {
			defer rdb.Close()
			priceStore = ingredient.NewRedisStore(rdb, cfg.Redis.PriceTTL())
			healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		}
	}

	// Remote restaurant API
	api, err := client.New(cfg.API.BaseURL, logger, client.WithTimeout(cfg.API.Timeout()))
	if err != nil {
		return fmt.Errorf("failed to initialize restaurant API client: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	checkouts := service.NewCheckoutService(service.CheckoutOptions{
		Remotes:     func(token string) service.Remote { return api.WithToken(token) },
		Defaults:    defaults,
		PriceStore:  priceStore,
		Recorder:    recorder,
		Metrics:     checkoutMetrics,
		IdleTimeout: cfg.Checkout.SessionIdleTimeout(),
		MaxSessions: cfg.Checkout.MaxSessions,
	}, logger)
	defer checkouts.Shutdown()
	go checkouts.Run(ctx, evictionInterval)

	submissionService := service.NewSubmissionService(submissions, logger)

	mux := router.New(
		handler.NewCheckoutHandler(checkouts, logger),
		handler.NewSubmissionHandler(submissionService, logger),
		handler.NewHealthHandler(healthChecks, logger),
		router.Options{
			APIKey:         cfg.Auth.APIKey,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Gatherer:       registry,
		},
		logger,
	)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Str("restaurant_api", cfg.API.BaseURL).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
