package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/secondsight/secondsight/internal/decision"
	"github.com/secondsight/secondsight/internal/models"
)

// ThemeReader is the persisted-theme surface the theme handlers need.
type ThemeReader interface {
	GetTheme(ctx context.Context, id string) (*models.ThemeDetail, error)
	ListThemes(ctx context.Context, userID string, limit int) ([]models.ThemeSummary, error)
	ListInvalidationItems(ctx context.Context, themeID string) ([]models.InvalidationItem, error)
	GetIndicatorDefinitions(ctx context.Context, themeID string) ([]models.IndicatorDefinition, error)
	UpdateInvalidationStatus(ctx context.Context, themeID, indicatorName string, status models.IndicatorStatus, note string) error
}

// ThemeHandler handles persisted theme retrieval and indicator
// observations.
type ThemeHandler struct {
	themes ThemeReader
	logger *slog.Logger
}

// NewThemeHandler creates a new theme handler
func NewThemeHandler(themes ThemeReader, logger *slog.Logger) *ThemeHandler {
	return &ThemeHandler{
		themes: themes,
		logger: logger,
	}
}

// ListThemes handles GET /api/themes
func (h *ThemeHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	themes, err := h.themes.ListThemes(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to list themes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list themes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"themes": themes}, h.logger)
}

// GetTheme handles GET /api/themes/:id
func (h *ThemeHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	themeID := pathSegment(r.URL.Path, "/api/themes/")
	if themeID == "" {
		writeError(w, http.StatusBadRequest, "Theme ID is required")
		return
	}

	detail, err := h.themes.GetTheme(r.Context(), themeID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Theme not found")
		return
	}

	writeJSON(w, http.StatusOK, detail, h.logger)
}

// ListInvalidationItems handles GET /api/themes/:id/invalidation
func (h *ThemeHandler) ListInvalidationItems(w http.ResponseWriter, r *http.Request) {
	themeID := pathSegment(r.URL.Path, "/api/themes/")
	if themeID == "" {
		writeError(w, http.StatusBadRequest, "Theme ID is required")
		return
	}

	items, err := h.themes.ListInvalidationItems(r.Context(), themeID)
	if err != nil {
		h.logger.Error("failed to list invalidation items", "error", err, "theme_id", themeID)
		writeError(w, http.StatusInternalServerError, "Failed to list invalidation items")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items}, h.logger)
}

// ObservationRequest records an observed value for a watched indicator.
type ObservationRequest struct {
	IndicatorName string  `json:"indicator_name"`
	ObservedValue float64 `json:"observed_value"`
	Note          string  `json:"note,omitempty"`
}

// RecordObservation handles PATCH /api/themes/:id/invalidation. The
// observed value is classified against the theme's stored thresholds and
// the matching invalidation item is updated in place.
func (h *ThemeHandler) RecordObservation(w http.ResponseWriter, r *http.Request) {
	themeID := pathSegment(r.URL.Path, "/api/themes/")
	if themeID == "" {
		writeError(w, http.StatusBadRequest, "Theme ID is required")
		return
	}

	var req ObservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.IndicatorName) == "" {
		writeError(w, http.StatusBadRequest, "indicator_name is required")
		return
	}

	defs, err := h.themes.GetIndicatorDefinitions(r.Context(), themeID)
	if err != nil {
		h.logger.Error("failed to load indicator definitions", "error", err, "theme_id", themeID)
		writeError(w, http.StatusInternalServerError, "Failed to load indicator definitions")
		return
	}

	var def *models.IndicatorDefinition
	for i := range defs {
		if strings.EqualFold(defs[i].IndicatorName, req.IndicatorName) {
			def = &defs[i]
			break
		}
	}
	if def == nil {
		writeError(w, http.StatusNotFound, "No indicator definition named "+req.IndicatorName)
		return
	}

	status := decision.StatusFromObservedValue(req.ObservedValue, *def)
	if err := h.themes.UpdateInvalidationStatus(r.Context(), themeID, def.IndicatorName, status, req.Note); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.Info("indicator observation recorded",
		"theme_id", themeID,
		"indicator", def.IndicatorName,
		"status", status)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"indicator_name": def.IndicatorName,
		"status":         status,
	}, h.logger)
}
