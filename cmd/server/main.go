package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidspace/backend/internal/metrics"
	"github.com/anonto42/vidspace/backend/internal/router"
	"github.com/anonto42/vidspace/backend/internal/services"
	"github.com/anonto42/vidspace/backend/internal/session"
	"github.com/anonto42/vidspace/backend/pkg/config"
	"github.com/anonto42/vidspace/backend/pkg/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage collaborators
	store, err := config.OpenStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Error().Err(err).Msg("Error closing document store")
		}
	}()

	media, err := config.OpenMedia(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize media store")
	}
	sessions, err := config.OpenSessions(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session store")
	}
	defer func() {
		if err := session.Close(sessions); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()

	svc := services.New(store, media, sessions,
		services.WithBcryptCost(cfg.BcryptCost),
		services.WithSessionTTL(cfg.SessionTTL),
		services.WithFeedLimit(cfg.FeedLimit),
		services.WithLogger(logging.Logger()),
	)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, svc)

	if cfg.MetricsPort != "" {
		go serveMetrics(ctx, cfg.MetricsPort)
	}
	switch {
	case cfg.ReconcileInterval <= 0:
	case !svc.NeedsReconcile():
		logging.Info().Str("backend", cfg.StoreBackend).Msg("Store commits pairs atomically, reconcile loop disabled")
	default:
		go reconcileLoop(ctx, svc, cfg.ReconcileInterval)
	}

	// Start server
	go func() {
		logging.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Error during shutdown")
	}
}

func serveMetrics(ctx context.Context, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	logging.Info().Str("port", port).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Error().Err(err).Msg("Metrics server failed")
	}
}

// reconcileLoop periodically repairs follow edges and like counters.
func reconcileLoop(ctx context.Context, svc *services.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.Reconcile(ctx); err != nil {
				logging.Warn().Err(err).Msg("Reconcile pass failed")
			}
		}
	}
}
