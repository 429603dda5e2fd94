package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/secondsight/secondsight/internal/auth"
)

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, runner AnalysisRunner, themes ThemeReader, scenarios ScenarioStore, universes UniverseStore, users UserStore, stats InferenceStatsSource, authConfig auth.Config, logger *slog.Logger) {
	analyzeHandler := NewAnalyzeHandler(runner, logger)
	themeHandler := NewThemeHandler(themes, logger)
	scenarioHandler := NewScenarioHandler(scenarios, logger)
	universeHandler := NewUniverseHandler(universes, logger)
	authHandler := NewAuthHandler(users, authConfig, logger)
	inferenceLogHandler := NewInferenceLogHandler(stats, logger)

	authMiddleware := auth.Middleware(authConfig)
	protected := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			authMiddleware(h).ServeHTTP(w, r)
		}
	}

	// Authentication routes (register and login are public)
	mux.HandleFunc("/api/auth/register", authHandler.Register)
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/validate", protected(authHandler.ValidateToken))

	// Analysis entry point
	mux.HandleFunc("/api/analyze", protected(analyzeHandler.Analyze))

	// Theme routes
	mux.HandleFunc("/api/themes", protected(themeHandler.ListThemes))
	mux.HandleFunc("/api/themes/", protected(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/invalidation") {
			switch r.Method {
			case http.MethodGet:
				themeHandler.ListInvalidationItems(w, r)
			case http.MethodPatch:
				themeHandler.RecordObservation(w, r)
			default:
				writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		themeHandler.GetTheme(w, r)
	}))

	// Scenario routes
	mux.HandleFunc("/api/scenarios", protected(scenarioHandler.HandleScenarios))
	mux.HandleFunc("/api/scenarios/import-csv", protected(scenarioHandler.ImportCSV))
	mux.HandleFunc("/api/scenarios/", protected(scenarioHandler.HandleScenarioByID))

	// Universe routes
	mux.HandleFunc("/api/universes", protected(universeHandler.HandleUniverses))
	mux.HandleFunc("/api/universes/", protected(universeHandler.GetUniverse))

	// Inference cost reporting
	mux.HandleFunc("/api/admin/inference-stats", protected(inferenceLogHandler.GetInferenceStats))

	// Fallback for unknown API paths
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
}
