package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/ringsaturn/tzf"
	"github.com/skylite-app/skylite/internal/api"
	"github.com/skylite-app/skylite/internal/attribution"
	"github.com/skylite-app/skylite/internal/config"
	"github.com/skylite-app/skylite/internal/scheduler"
	"github.com/skylite-app/skylite/internal/services"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting SkyLite weather dashboard")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if level, err := zapcore.ParseLevel(cfg.Server.LogLevel); err == nil && level != zapcore.InfoLevel {
		logger = rebuildLogger(level, logger)
		zap.ReplaceGlobals(logger)
	}

	// Coordinates to IANA timezone, used for sunrise and sunset
	timezones, err := tzf.NewDefaultFinder()
	if err != nil {
		logger.Fatal("Failed to initialize timezone finder", zap.Error(err))
	}

	dashboard := services.NewDashboard(cfg, timezones, logger)
	attributions := attribution.NewStore(filepath.Join(cfg.Assets.Dir, "Attributions"), logger)

	// Initialize scheduler
	jobs := scheduler.NewScheduler(
		attributions,
		dashboard,
		cfg.Scheduler.AttributionReload,
		cfg.Scheduler.BreakerReport,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		JSONEncoder:  json.Marshal,
		ErrorHandler: api.ErrorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(dashboard, attributions, jobs, cfg.Server.SearchTimeout, logger)
	api.SetupRoutes(app, handler, cfg, logger)

	// Start scheduler
	if cfg.Scheduler.Enabled {
		if err := jobs.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// SIGHUP runs the jobs right away, e.g. after attribution files change
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			jobs.ForceRun()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	signal.Stop(hup)

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop scheduler
	jobs.Stop()

	// Shutdown Fiber app
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func rebuildLogger(level zapcore.Level, fallback *zap.Logger) *zap.Logger {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapConfig.Build()
	if err != nil {
		fallback.Warn("Failed to apply log level, keeping default", zap.Error(err))
		return fallback
	}
	return logger
}
