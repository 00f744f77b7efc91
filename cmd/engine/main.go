// Package main is the entry point for the load test engine
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/service-perf-validator/loadtest-engine/internal/alert"
	"github.com/service-perf-validator/loadtest-engine/internal/api/rest"
	"github.com/service-perf-validator/loadtest-engine/internal/archive"
	"github.com/service-perf-validator/loadtest-engine/internal/config"
	"github.com/service-perf-validator/loadtest-engine/internal/executor"
	"github.com/service-perf-validator/loadtest-engine/internal/history"
	"github.com/service-perf-validator/loadtest-engine/internal/loader"
	"github.com/service-perf-validator/loadtest-engine/internal/registry"
	"github.com/service-perf-validator/loadtest-engine/internal/runner"
	"github.com/service-perf-validator/loadtest-engine/internal/schedule"
	"github.com/service-perf-validator/loadtest-engine/pkg/common"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting load test engine")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Result history store
	var store history.Store
	switch cfg.History.Backend {
	case config.HistoryPostgres:
		pgCfg := history.DefaultPostgresConfig()
		pgCfg.URL = cfg.History.DatabaseURL
		pg, err := history.NewPostgresStore(pgCfg)
		if err != nil {
			slog.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		store = pg
	default:
		store = history.NewMemoryStore(cfg.History.Limit)
	}
	defer store.Close()

	// Optional result archive
	var archiver archive.Archiver
	if cfg.Archive.Backend != "" {
		storage, err := archive.NewStorage(&archive.Config{
			Backend:         archive.Backend(cfg.Archive.Backend),
			LocalPath:       cfg.Archive.LocalPath,
			Endpoint:        cfg.Archive.Endpoint,
			Region:          cfg.Archive.Region,
			Bucket:          cfg.Archive.Bucket,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			SecretAccessKey: cfg.Archive.SecretAccessKey,
		})
		if err != nil {
			slog.Error("Failed to initialize archive storage", "error", err)
			os.Exit(1)
		}
		archiver = storage
		slog.Info("Result archiving enabled", "backend", cfg.Archive.Backend)
	}

	// Alert webhook
	notifier := alert.NewWebhookNotifier(cfg.AlertWebhookURL)
	if notifier.IsConfigured() {
		slog.Info("Alerting enabled", "webhook_url", cfg.AlertWebhookURL)
	}

	// Request executor
	var exec runner.RequestExecutor
	switch cfg.Executor {
	case config.ExecutorSimulated:
		exec = executor.NewSimulatedExecutor(executor.SimulatedConfig{})
		slog.Info("Using simulated executor")
	default:
		exec = executor.NewHTTPExecutor(
			time.Duration(cfg.RequestTimeoutSeconds)*time.Second,
			cfg.MaxConnections,
		)
	}

	// HTTP server with standard endpoints
	srv := common.NewServer("engine", cfg.HTTPPort)

	reg := registry.New(registry.Options{
		Executor:  exec,
		History:   store,
		Scheduler: schedule.NewIntervalScheduler(),
		Notifier:  notifier,
		Archiver:  archiver,
		Metrics:   srv.Metrics(),
	})

	// Register test definitions from file
	if cfg.DefinitionsFile != "" {
		defs, err := loader.Load(cfg.DefinitionsFile)
		if err != nil {
			slog.Error("Failed to load test definitions", "file", cfg.DefinitionsFile, "error", err)
			os.Exit(1)
		}
		for _, def := range defs {
			if err := reg.Register(def); err != nil {
				slog.Error("Failed to register test", "test_id", def.ID, "error", err)
				os.Exit(1)
			}
		}
		slog.Info("Registered test definitions", "file", cfg.DefinitionsFile, "count", len(defs))
	}

	rest.NewHandler(reg, archiver).RegisterRoutes(srv.Router())

	srv.RunWithGracefulShutdown()

	reg.Shutdown()

	slog.Info("Engine shutdown complete")
}
