package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tjfontaine/openalerts/internal/config"
	"github.com/tjfontaine/openalerts/internal/dashboard"
	"github.com/tjfontaine/openalerts/internal/engine"
	"github.com/tjfontaine/openalerts/internal/store"
	"github.com/tjfontaine/openalerts/internal/tailer"
	"github.com/tjfontaine/openalerts/internal/telemetry"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	configPath := flag.String("config", "openalerts.yaml", "path to the YAML config file")
	testAlert := flag.Bool("test-alert", false, "send a test alert to every channel and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	shutdownTracer, err := telemetry.InitTracer("openalerts", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	// The tailer reads the same events.jsonl the monitored process writes,
	// so the engine must not append tailed events back to it. Alerts still
	// persist; the tailer skips alert lines.
	eng := engine.New(cfg, engine.WithLogger(logger), engine.WithoutEventPersistence())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("Failed to start engine: %v", err)
	}

	if *testAlert {
		eng.SendTestAlert(ctx)
		logger.Info("test alert dispatched")
		stopEngine(eng, logger)
		return
	}

	var dash *dashboard.Server
	if cfg.Dashboard {
		dash = dashboard.New(eng, fmt.Sprintf(":%d", cfg.DashboardPort), logger)
		if err := dash.Start(ctx); err != nil {
			// Another instance may already own the port. Monitoring still
			// works without the UI.
			logger.Warn("dashboard disabled", slog.String("error", err.Error()))
			dash = nil
		}
	}

	// Serve mode: follow the log written by the monitored process.
	logPath := filepath.Join(cfg.StateDir, store.LogFileName)
	t := tailer.New(logPath, eng, logger)
	go func() {
		if err := t.Run(ctx); err != nil && ctx.Err() == nil {
			logger.Error("tailer stopped", slog.String("error", err.Error()))
		}
	}()
	logger.Info("watching event log", slog.String("path", logPath))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutdown signal received, stopping...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if dash != nil {
		if err := dash.Shutdown(shutdownCtx); err != nil {
			logger.Error("dashboard shutdown error", slog.String("error", err.Error()))
		}
	}
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.Error("engine shutdown error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Shutdown complete")
}

func stopEngine(eng *engine.Engine, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eng.Stop(ctx); err != nil {
		logger.Error("engine shutdown error", slog.String("error", err.Error()))
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".openalerts"
	}
	return filepath.Join(home, ".openalerts")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
