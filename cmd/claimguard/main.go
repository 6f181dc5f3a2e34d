// ClaimGuard - policy adjudication for health-insurance claims.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/opensource-finance/claimguard/internal/api"
	"github.com/opensource-finance/claimguard/internal/bus"
	"github.com/opensource-finance/claimguard/internal/cache"
	"github.com/opensource-finance/claimguard/internal/config"
	"github.com/opensource-finance/claimguard/internal/domain"
	"github.com/opensource-finance/claimguard/internal/extract"
	"github.com/opensource-finance/claimguard/internal/logging"
	"github.com/opensource-finance/claimguard/internal/metrics"
	"github.com/opensource-finance/claimguard/internal/policy"
	"github.com/opensource-finance/claimguard/internal/repository"
	"github.com/opensource-finance/claimguard/internal/review"
	"github.com/opensource-finance/claimguard/internal/service"
	"github.com/opensource-finance/claimguard/internal/telemetry"
	"github.com/opensource-finance/claimguard/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", os.Getenv("CLAIMGUARD_CONFIG"), "path to a YAML configuration file")
	flag.Parse()

	// Bootstrap logger until the configured one is known
	slog.SetDefault(logging.New(domain.LoggingConfig{}, os.Stdout))

	slog.Info("starting claimguard",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg.Logging, os.Stdout))

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"rules", cfg.Policy.RulesPath,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
		"extraction", cfg.Extraction.Provider,
		"review", cfg.Review.Provider,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	shutdownTracing, err := telemetry.Setup(cfg.Tracing, Version)
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	// The catalog is required; a server that cannot adjudicate must not start
	engine, err := policy.NewEngineFromFile(cfg.Policy.RulesPath)
	if err != nil {
		slog.Error("failed to load rule catalog", "path", cfg.Policy.RulesPath, "error", err)
		os.Exit(1)
	}
	catalog := engine.Catalog()
	slog.Info("rule catalog loaded",
		"path", cfg.Policy.RulesPath,
		"categories", catalog.CategoryCount(),
		"keywords", catalog.KeywordCount(),
		"expressions", catalog.ExpressionCount(),
		"room_rent_pct", catalog.RoomRentPercentage(),
	)

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type, "two_phase", cfg.Cache.EnableTwoPhase)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// External collaborators
	extractor, err := extract.New(cfg.Extraction)
	if err != nil {
		slog.Error("failed to initialize claim extractor", "error", err)
		os.Exit(1)
	}
	reviewer, err := review.New(cfg.Review)
	if err != nil {
		slog.Error("failed to initialize necessity reviewer", "error", err)
		os.Exit(1)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	asyncEnabled := cfg.Worker.Enabled || os.Getenv("CLAIMGUARD_ASYNC_WORKER") == "true"

	svc, err := service.New(engine, service.Options{
		Repository: repo,
		Cache:      cacheImpl,
		Bus:        busImpl,
		Extractor:  extractor,
		Reviewer:   reviewer,
		Metrics:    m,
		ResultTTL:  cfg.Cache.ResultTTL,

		AsyncEnabled: asyncEnabled,
	})
	if err != nil {
		slog.Error("failed to initialize adjudication service", "error", err)
		os.Exit(1)
	}

	// Initialize async Worker
	// Without a worker, /adjudicate/async answers 503 instead of queuing
	var asyncWorker *worker.Worker
	if asyncEnabled {
		asyncWorker = worker.NewWorker(busImpl, svc)
		if err := asyncWorker.Start(); err != nil {
			slog.Error("failed to start async worker", "error", err)
			os.Exit(1)
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, svc, m, registry, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("claimguard is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Stop accepting requests before draining the worker
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	slog.Info("claimguard shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |               CLAIMGUARD                  |")
	fmt.Println("  |      Policy Adjudication Engine           |")
	fmt.Println("  |   Every line item, every rupee, reasoned. |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Rules:    %s\n", cfg.Policy.RulesPath)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /adjudicate          - Adjudicate a claim")
	fmt.Println("    POST /adjudicate/batch    - Adjudicate up to 100 claims")
	fmt.Println("    POST /adjudicate/async    - Queue a claim for the worker")
	fmt.Println("    POST /analyze             - Extract and adjudicate a receipt image")
	fmt.Println("    GET  /adjudications       - List recent adjudications")
	fmt.Println("    GET  /adjudications/{id}  - Get adjudication by ID")
	fmt.Println("    GET  /policy              - Show the loaded rule catalog")
	fmt.Println("    GET  /health              - Health check")
	fmt.Println("    GET  /metrics             - Prometheus metrics")
	fmt.Println()
}
