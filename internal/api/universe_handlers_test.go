package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

type fakeUniverseStore struct {
	byID   map[string]*models.UniverseVersion
	nextID int
}

func newFakeUniverseStore() *fakeUniverseStore {
	return &fakeUniverseStore{byID: make(map[string]*models.UniverseVersion)}
}

func (s *fakeUniverseStore) CreateVersion(_ context.Context, version models.UniverseVersion) (*models.UniverseVersion, error) {
	s.nextID++
	version.ID = fmt.Sprintf("universe-%d", s.nextID)
	version.CreatedAt = time.Now()
	stored := version
	s.byID[version.ID] = &stored
	return &stored, nil
}

func (s *fakeUniverseStore) GetVersion(_ context.Context, id string) (*models.UniverseVersion, error) {
	version, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("no universe version with id %s", id)
	}
	return version, nil
}

func (s *fakeUniverseStore) ListVersions(_ context.Context, userID string) ([]models.UniverseVersionSummary, error) {
	summaries := []models.UniverseVersionSummary{}
	for _, version := range s.byID {
		if version.UserID == userID {
			summaries = append(summaries, models.UniverseVersionSummary{
				ID:        version.ID,
				Name:      version.Name,
				RowCount:  len(version.Rows),
				CreatedAt: version.CreatedAt,
			})
		}
	}
	return summaries, nil
}

const sampleUniverseCSV = "symbol,company_name,asset_type,liquidity_class,exp_capital-rotation\n" +
	"EXPT,Exporter PLC,EQUITY,daily,0.8\n" +
	"EXPT,Duplicate Row,EQUITY,daily,0.5\n" +
	"ZERO,Zero Signal Co,EQUITY,daily,0\n"

func TestUploadUniverse(t *testing.T) {
	store := newFakeUniverseStore()
	handler := NewUniverseHandler(store, testLogger())

	rr := httptest.NewRecorder()
	asUser(handler.HandleUniverses).ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/universes", UploadUniverseRequest{
		Name: "UK listed",
		CSV:  sampleUniverseCSV,
	}))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp UploadUniverseResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Version.RowCount != 1 {
		t.Errorf("row count = %d, want 1", resp.Version.RowCount)
	}
	// The duplicate and the all-zero row each leave a warning.
	if len(resp.Warnings) != 2 {
		t.Errorf("warnings = %v, want 2 entries", resp.Warnings)
	}

	stored, err := store.GetVersion(context.Background(), resp.Version.ID)
	if err != nil {
		t.Fatalf("stored version missing: %v", err)
	}
	if stored.Rows[0].Symbol != "EXPT" || stored.Rows[0].ExposureVector["exp_capital-rotation"] != 0.8 {
		t.Errorf("unexpected stored row: %+v", stored.Rows[0])
	}
}

func TestUploadUniverseRejectsBadCSV(t *testing.T) {
	handler := NewUniverseHandler(newFakeUniverseStore(), testLogger())

	tests := []struct {
		name string
		req  UploadUniverseRequest
	}{
		{name: "missing csv", req: UploadUniverseRequest{Name: "UK listed"}},
		{name: "missing name", req: UploadUniverseRequest{CSV: sampleUniverseCSV}},
		{name: "no exposure columns", req: UploadUniverseRequest{
			Name: "UK listed",
			CSV:  "symbol,company_name,asset_type,liquidity_class\nEXPT,Exporter PLC,EQUITY,daily\n",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			asUser(handler.HandleUniverses).ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/universes", tt.req))
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}

func TestListAndGetUniverse(t *testing.T) {
	store := newFakeUniverseStore()
	created, err := store.CreateVersion(context.Background(), models.UniverseVersion{
		UserID: "user-1",
		Name:   "UK listed",
		Rows: []models.UniverseRow{{
			Symbol:         "EXPT",
			CompanyName:    "Exporter PLC",
			AssetType:      models.AssetEquity,
			LiquidityClass: "daily",
			ExposureVector: map[string]float64{"exp_capital-rotation": 0.8},
		}},
	})
	if err != nil {
		t.Fatalf("seed universe: %v", err)
	}
	handler := NewUniverseHandler(store, testLogger())

	rr := httptest.NewRecorder()
	asUser(handler.HandleUniverses).ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/universes", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	var listResp struct {
		Versions []models.UniverseVersionSummary `json:"versions"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(listResp.Versions) != 1 || listResp.Versions[0].RowCount != 1 {
		t.Errorf("unexpected versions: %+v", listResp.Versions)
	}

	rr = httptest.NewRecorder()
	asUser(handler.GetUniverse).ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/universes/"+created.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var version models.UniverseVersion
	if err := json.Unmarshal(rr.Body.Bytes(), &version); err != nil {
		t.Fatalf("failed to decode get response: %v", err)
	}
	if version.ID != created.ID || len(version.Rows) != 1 {
		t.Errorf("unexpected version: %+v", version)
	}
}
