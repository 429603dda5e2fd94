package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/universe"
)

// UniverseStore is the universe persistence surface the handlers need.
type UniverseStore interface {
	CreateVersion(ctx context.Context, version models.UniverseVersion) (*models.UniverseVersion, error)
	GetVersion(ctx context.Context, id string) (*models.UniverseVersion, error)
	ListVersions(ctx context.Context, userID string) ([]models.UniverseVersionSummary, error)
}

// UniverseHandler handles instrument universe uploads.
type UniverseHandler struct {
	universes UniverseStore
	logger    *slog.Logger
}

// NewUniverseHandler creates a new universe handler
func NewUniverseHandler(universes UniverseStore, logger *slog.Logger) *UniverseHandler {
	return &UniverseHandler{
		universes: universes,
		logger:    logger,
	}
}

// UploadUniverseRequest carries one universe CSV to version.
type UploadUniverseRequest struct {
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// UploadUniverseResponse returns the stored version plus parse warnings
// for rows that were dropped.
type UploadUniverseResponse struct {
	Version  models.UniverseVersionSummary `json:"version"`
	Warnings []string                      `json:"warnings"`
}

// HandleUniverses handles GET and POST /api/universes
func (h *UniverseHandler) HandleUniverses(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	switch r.Method {
	case http.MethodGet:
		versions, err := h.universes.ListVersions(r.Context(), userID)
		if err != nil {
			h.logger.Error("failed to list universe versions", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list universe versions")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"versions": versions}, h.logger)

	case http.MethodPost:
		h.uploadUniverse(w, r, userID)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// GetUniverse handles GET /api/universes/:id
func (h *UniverseHandler) GetUniverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := pathSegment(r.URL.Path, "/api/universes/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Universe version ID is required")
		return
	}

	version, err := h.universes.GetVersion(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Universe version not found")
		return
	}

	writeJSON(w, http.StatusOK, version, h.logger)
}

func (h *UniverseHandler) uploadUniverse(w http.ResponseWriter, r *http.Request, userID string) {
	var req UploadUniverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateNamedUpload(req.Name, req.CSV); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	parsed, err := universe.ParseUniverseCSV(req.CSV)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	version, err := h.universes.CreateVersion(r.Context(), models.UniverseVersion{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Rows:   parsed.Rows,
	})
	if err != nil {
		h.logger.Error("failed to store universe version", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to store universe version")
		return
	}

	h.logger.Info("universe version stored",
		"version_id", version.ID,
		"rows", len(version.Rows),
		"warnings", len(parsed.Warnings))

	writeJSON(w, http.StatusCreated, UploadUniverseResponse{
		Version: models.UniverseVersionSummary{
			ID:        version.ID,
			Name:      version.Name,
			RowCount:  len(version.Rows),
			CreatedAt: version.CreatedAt,
		},
		Warnings: parsed.Warnings,
	}, h.logger)
}
