package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"coffeeapi/internal/handlers"
	"coffeeapi/internal/middleware"
	"coffeeapi/internal/routing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServer(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := log.With().Str("component", "main").Logger()
	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", buildDate).
		Str("backend", cfg.Backend).
		Msg("Starting coffeeapi")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open repository")
		return err
	}
	defer repo.Close()

	if cfg.Seed {
		roasters, coffees, err := seedRepository(ctx, repo)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to seed repository")
			return err
		}
		logger.Info().Int("roasters", roasters).Int("coffees", coffees).Msg("Seeded repository")
	}

	routerCfg := routing.Config{
		Handlers: handlers.NewHandler(repo),
		Logger:   log.With().Str("component", "http").Logger(),
	}
	if cfg.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		defer limiter.Close()
		routerCfg.RateLimiter = limiter
	}
	if cfg.MetricsEnabled {
		routerCfg.Metrics = middleware.NewMetrics()
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           routing.SetupRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case serveErr = <-errCh:
		logger.Error().Err(serveErr).Msg("HTTP server error")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}
	logger.Info().Msg("Server stopped gracefully")

	return serveErr
}
