package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
)

// AnalysisRunner runs the full pipeline for one request.
type AnalysisRunner interface {
	Analyze(ctx context.Context, req *models.AnalyzeRequest, userID string) (*models.AnalysisResult, error)
}

// AnalyzeHandler handles the single analysis entry point.
type AnalyzeHandler struct {
	runner AnalysisRunner
	logger *slog.Logger
}

// NewAnalyzeHandler creates a new analysis handler
func NewAnalyzeHandler(runner AnalysisRunner, logger *slog.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		runner: runner,
		logger: logger,
	}
}

// Analyze handles POST /api/analyze
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.runner.Analyze(r.Context(), &req, userID)
	if err != nil {
		writeError(w, analyzeErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}

// analyzeErrorStatus maps pipeline failures onto HTTP statuses: caller
// mistakes are 4xx, model failures are 502, the rest 500.
func analyzeErrorStatus(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "portfolio validation failed"):
		return http.StatusUnprocessableEntity
	case strings.Contains(msg, "reasoning failed"):
		return http.StatusBadGateway
	case strings.Contains(msg, "failed to load portfolio scenario"),
		strings.Contains(msg, "failed to load universe version"):
		return http.StatusNotFound
	case strings.Contains(msg, "failed to persist"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
