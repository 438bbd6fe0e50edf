// Package main is the entry point for the portfolio risk analysis service.
// It serves MPT analytics (risk contribution, correlation, efficient
// frontier, portfolio metrics) for crypto holdings over HTTP, backed by a
// local SQLite cache of daily closes from the price provider.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/esfolk/DefiHedge/internal/config"
	"github.com/esfolk/DefiHedge/internal/di"
	"github.com/esfolk/DefiHedge/internal/modules/prices"
	"github.com/esfolk/DefiHedge/internal/modules/risk"
	"github.com/esfolk/DefiHedge/internal/server"
	"github.com/esfolk/DefiHedge/pkg/logger"
)

// main is the application entry point. It orchestrates the startup sequence:
// 1. Loads configuration from environment variables (.env file supported)
// 2. Initializes logging
// 3. Wires the history database, price pipeline, analyzer and jobs
// 4. Starts the HTTP server and the job scheduler
// 5. Waits for a shutdown signal and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting risk analysis service")

	container, jobs, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	// Metrics registry: runtime collectors plus the price and risk packages
	registry, err := server.NewRegistry(append(risk.Collectors(), prices.Collectors()...)...)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register metrics")
	}

	srv := server.New(server.Config{
		Log:         log,
		HistoryDB:   container.HistoryDB,
		RiskHandler: container.RiskHandler,
		Jobs:        jobs.Scheduler,
		Registry:    registry,
		Port:        cfg.Port,
		DevMode:     cfg.DevMode,
		CORSOrigins: cfg.CORSOrigins,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	jobs.Scheduler.Start()

	log.Info().Int("port", cfg.Port).Msg("Service started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down service...")

	// Stop accepting requests first, then let running jobs finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	jobs.Scheduler.Stop()

	log.Info().Msg("Service stopped")
}
