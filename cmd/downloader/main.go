package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"downloader/internal/api"
	"downloader/internal/config"
	"downloader/internal/download"
	"downloader/internal/logger"
	"downloader/internal/models"
	"downloader/internal/observability"
	"downloader/internal/ratelimit"
	"downloader/internal/storage"
	"downloader/internal/version"
)

var (
	configFile    = flag.String("config", "", "Path to configuration file")
	exampleConfig = flag.String("write-example-config", "", "Write an example configuration to this path and exit")
)

func main() {
	flag.Parse()

	if *exampleConfig != "" {
		if err := config.SaveExample(*exampleConfig); err != nil {
			slog.Error("Failed to write example configuration", "error", err)
			os.Exit(1)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ver := version.GetInfo()

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize download history storage
	store, err := initializeStorage(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	// Initialize result cache
	cache, err := download.NewCache(cfg.Cache)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cache.Close()

	downloadService := download.NewService(
		download.NewHTTPFetcher(cfg.Download, nil),
		cache,
		store,
		cfg.Download.AllowedHosts,
	)

	limiter, err := initializeLimiter(cfg)
	if err != nil {
		slog.Error("Failed to initialize rate limiter", "error", err)
		os.Exit(1)
	}
	if c, ok := limiter.(interface{ Close() error }); ok {
		defer c.Close()
	}

	handlers := api.NewHandlers(downloadService, limiter, cfg.RateLimit.TrustProxyHeaders, map[string]api.Pinger{
		"storage": store,
		"cache":   cache,
	})

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}
	router := api.SetupRoutes(handlers, cfg, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server",
			"addr", server.Addr,
			"storage", cfg.Storage.Type,
			"cache", cfg.Cache.Type,
			"rate_limit", cfg.RateLimit.Enabled)

		var err error
		if cfg.Server.TLSEnabled {
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// initializeStorage creates the history backend and wraps it with
// instrumentation when metrics are enabled.
func initializeStorage(cfg *models.Config) (storage.Storage, error) {
	store, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if !cfg.Metrics.Enabled {
		return store, nil
	}

	instrumented, err := observability.NewInstrumentedStorage(store)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("instrument storage: %w", err)
	}
	return instrumented, nil
}

// initializeLimiter builds the per-client limiter. It exists even when rate
// limiting is disabled so /api/limits keeps answering.
func initializeLimiter(cfg *models.Config) (ratelimit.Limiter, error) {
	memory, err := ratelimit.NewMemoryLimiter(ratelimit.Limits{
		Minute: cfg.RateLimit.RequestsPerMinute,
		Hour:   cfg.RateLimit.RequestsPerHour,
		Day:    cfg.RateLimit.RequestsPerDay,
	})
	if err != nil {
		return nil, err
	}
	if !cfg.Metrics.Enabled {
		return memory, nil
	}
	instrumented, err := observability.NewInstrumentedLimiter(memory)
	if err != nil {
		return nil, fmt.Errorf("instrument rate limiter: %w", err)
	}
	return instrumented, nil
}
