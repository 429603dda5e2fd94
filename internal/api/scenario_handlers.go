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

// ScenarioStore is the scenario persistence surface the handlers need.
type ScenarioStore interface {
	Create(ctx context.Context, scenario models.PortfolioScenario) (*models.PortfolioScenario, error)
	Get(ctx context.Context, id string) (*models.PortfolioScenario, error)
	List(ctx context.Context, userID string) ([]models.PortfolioScenario, error)
	Delete(ctx context.Context, id string) error
}

// ScenarioHandler handles saved portfolio scenarios.
type ScenarioHandler struct {
	scenarios ScenarioStore
	logger    *slog.Logger
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(scenarios ScenarioStore, logger *slog.Logger) *ScenarioHandler {
	return &ScenarioHandler{
		scenarios: scenarios,
		logger:    logger,
	}
}

// CreateScenarioRequest names a holdings set for reuse.
type CreateScenarioRequest struct {
	Name     string                `json:"name"`
	Holdings []models.HoldingInput `json:"holdings"`
}

// HandleScenarios handles GET and POST /api/scenarios
func (h *ScenarioHandler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	switch r.Method {
	case http.MethodGet:
		scenarios, err := h.scenarios.List(r.Context(), userID)
		if err != nil {
			h.logger.Error("failed to list scenarios", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to list scenarios")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"scenarios": scenarios}, h.logger)

	case http.MethodPost:
		var req CreateScenarioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		h.createScenario(w, r, userID, req.Name, req.Holdings)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// ImportCSVRequest carries a spreadsheet export to turn into a scenario.
type ImportCSVRequest struct {
	Name string `json:"name"`
	CSV  string `json:"csv"`
}

// ImportCSV handles POST /api/scenarios/import-csv
func (h *ScenarioHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	var req ImportCSVRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := ValidateNamedUpload(req.Name, req.CSV); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	holdings, err := universe.ParseHoldingsCSV(req.CSV)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.createScenario(w, r, userID, req.Name, holdings)
}

// HandleScenarioByID handles GET and DELETE /api/scenarios/:id
func (h *ScenarioHandler) HandleScenarioByID(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	id := pathSegment(r.URL.Path, "/api/scenarios/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Scenario ID is required")
		return
	}

	scenario, err := h.scenarios.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Scenario not found")
		return
	}
	if scenario.UserID != "" && scenario.UserID != userID {
		writeError(w, http.StatusNotFound, "Scenario not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, scenario, h.logger)

	case http.MethodDelete:
		if err := h.scenarios.Delete(r.Context(), id); err != nil {
			h.logger.Error("failed to delete scenario", "error", err, "scenario_id", id)
			writeError(w, http.StatusInternalServerError, "Failed to delete scenario")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (h *ScenarioHandler) createScenario(w http.ResponseWriter, r *http.Request, userID, name string, holdings []models.HoldingInput) {
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	models.NormalizeHoldingWeights(holdings)
	if err := models.ValidateHoldings(holdings); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(holdings) == 0 {
		writeError(w, http.StatusBadRequest, "At least one holding is required")
		return
	}

	scenario, err := h.scenarios.Create(r.Context(), models.PortfolioScenario{
		UserID:   userID,
		Name:     strings.TrimSpace(name),
		Holdings: holdings,
	})
	if err != nil {
		h.logger.Error("failed to create scenario", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create scenario")
		return
	}

	h.logger.Info("scenario created", "scenario_id", scenario.ID, "holdings", len(scenario.Holdings))
	writeJSON(w, http.StatusCreated, scenario, h.logger)
}
