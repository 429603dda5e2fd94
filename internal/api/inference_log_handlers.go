package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

// InferenceStatsSource aggregates reasoning call logs.
type InferenceStatsSource interface {
	GetStats(ctx context.Context, startDate, endDate *time.Time) (*models.InferenceLogStats, error)
}

// InferenceLogHandler handles HTTP requests for inference cost reporting
type InferenceLogHandler struct {
	stats  InferenceStatsSource
	logger *slog.Logger
}

// NewInferenceLogHandler creates a new handler
func NewInferenceLogHandler(stats InferenceStatsSource, logger *slog.Logger) *InferenceLogHandler {
	return &InferenceLogHandler{
		stats:  stats,
		logger: logger,
	}
}

// GetInferenceStats handles GET /api/admin/inference-stats
func (h *InferenceLogHandler) GetInferenceStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var startDate, endDate *time.Time

	if startDateStr := r.URL.Query().Get("start_date"); startDateStr != "" {
		if parsed, err := time.Parse(time.RFC3339, startDateStr); err == nil {
			startDate = &parsed
		}
	}

	if endDateStr := r.URL.Query().Get("end_date"); endDateStr != "" {
		if parsed, err := time.Parse(time.RFC3339, endDateStr); err == nil {
			endDate = &parsed
		}
	}

	stats, err := h.stats.GetStats(r.Context(), startDate, endDate)
	if err != nil {
		h.logger.Error("failed to get inference stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get inference stats")
		return
	}

	writeJSON(w, http.StatusOK, stats, h.logger)
}
