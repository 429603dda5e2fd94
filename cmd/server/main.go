package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/secondsight/secondsight/internal/analyzer"
	"github.com/secondsight/secondsight/internal/api"
	"github.com/secondsight/secondsight/internal/auth"
	"github.com/secondsight/secondsight/internal/cloudsql"
	"github.com/secondsight/secondsight/internal/config"
	"github.com/secondsight/secondsight/internal/database"
	"github.com/secondsight/secondsight/internal/inference"
	"github.com/secondsight/secondsight/internal/logging"
	"github.com/secondsight/secondsight/internal/metrics"
	"github.com/secondsight/secondsight/internal/reasoning"
	"github.com/secondsight/secondsight/internal/scheduler"
	"github.com/secondsight/secondsight/internal/server"
	"log/slog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to init logger", "error", err)
		os.Exit(1)
	}

	logger.Info("starting secondsight")

	if cfg.Auth.JWTSecret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL, err := cloudsql.ResolveURL(cfg.Database.URL)
	if err != nil {
		logger.Error("failed to resolve database URL", "error", err)
		os.Exit(1)
	}

	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL

	logger.Info("connecting to database", "url", cloudsql.Redact(dbURL))
	db, err := database.Connect(ctx, dbConfig)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("database connected")

	// Run pending migrations (non-fatal to allow app to start even if migrations fail)
	if err := database.RunMigrations(db, cfg.Database.MigrationsDir, logger); err != nil {
		logger.Warn("failed to run migrations, continuing anyway", "error", err)
	}

	// Create repositories
	themeRepo := database.NewThemeRepository(db)
	scenarioRepo := database.NewScenarioRepository(db)
	universeRepo := database.NewUniverseRepository(db)
	userRepo := database.NewUserRepository(db)
	inferenceLogRepo := database.NewInferenceLogRepository(db)

	// Create inference logger
	inferenceLogger := inference.NewLogger(inferenceLogRepo, logger)

	// Select reasoning capability
	capability := buildCapability(cfg.Reasoning, logger, inferenceLogger)
	orchestrator := reasoning.NewOrchestrator(capability, logger)

	collector, err := metrics.NewCollector()
	if err != nil {
		logger.Error("failed to init metrics", "error", err)
		os.Exit(1)
	}
	orchestrator.SetCallCounter(collector)

	engine := analyzer.New(orchestrator, themeRepo, scenarioRepo, universeRepo, collector, logger)

	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	indicatorScheduler := scheduler.NewIndicatorScheduler(themeRepo, logger)
	go indicatorScheduler.Start(schedulerCtx)

	authConfig := auth.Config{
		JWTSecret:     cfg.Auth.JWTSecret,
		TokenDuration: cfg.Auth.TokenExpiry,
	}

	// Setup HTTP routes
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := database.HealthCheck(r.Context(), db); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Service info endpoint
	mux.HandleFunc("/api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"service":  "secondsight",
			"status":   "ready",
			"version":  "0.1.0",
			"model":    orchestrator.ModelName(),
			"database": database.Stats(db),
		})
	})

	mux.Handle("/metrics", collector.Handler())

	logger.Info("setting up REST API")
	api.SetupRoutes(mux, engine, themeRepo, scenarioRepo, universeRepo, userRepo, inferenceLogRepo, authConfig, logger)

	handler := collector.InstrumentHandler(mux)
	srv := server.New(cfg.Server, logger, handler)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("secondsight started successfully")
	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s", cfg.Server.Port))

	waitForSignal(logger)

	logger.Info("shutting down")
	stopScheduler()
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// buildCapability picks the reasoning provider. A missing API key always
// falls back to the deterministic mock so the service stays usable in
// local development.
func buildCapability(cfg config.ReasoningConfig, logger *slog.Logger, inferenceLogger *inference.Logger) reasoning.Capability {
	rcfg := reasoning.Config{
		Provider:    cfg.Provider,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	switch {
	case cfg.Provider == "mock":
		logger.Info("using mock reasoning capability")
		return reasoning.NewMockCapability()
	case cfg.APIKey == "":
		logger.Warn("REASONING_API_KEY not set, falling back to mock reasoning capability", "provider", cfg.Provider)
		return reasoning.NewMockCapability()
	case cfg.Provider == "anthropic":
		logger.Info("using anthropic reasoning capability", "model", cfg.Model)
		return reasoning.NewAnthropicClient(rcfg, logger, inferenceLogger)
	default:
		logger.Info("using openai reasoning capability", "model", cfg.Model)
		return reasoning.NewOpenAIClient(rcfg, logger, inferenceLogger)
	}
}

func waitForSignal(logger *slog.Logger) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	sig := <-c
	logger.Info("received signal", "signal", sig.String())
	signal.Stop(c)
	close(c)
}
