package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

type fakeThemeReader struct {
	detail      *models.ThemeDetail
	summaries   []models.ThemeSummary
	items       []models.InvalidationItem
	definitions []models.IndicatorDefinition

	updatedIndicator string
	updatedStatus    models.IndicatorStatus
	updatedNote      string
	updateErr        error
}

func (f *fakeThemeReader) GetTheme(_ context.Context, id string) (*models.ThemeDetail, error) {
	if f.detail == nil || f.detail.Theme.ID != id {
		return nil, fmt.Errorf("no theme with id %s", id)
	}
	return f.detail, nil
}

func (f *fakeThemeReader) ListThemes(_ context.Context, _ string, _ int) ([]models.ThemeSummary, error) {
	return f.summaries, nil
}

func (f *fakeThemeReader) ListInvalidationItems(_ context.Context, _ string) ([]models.InvalidationItem, error) {
	return f.items, nil
}

func (f *fakeThemeReader) GetIndicatorDefinitions(_ context.Context, _ string) ([]models.IndicatorDefinition, error) {
	return f.definitions, nil
}

func (f *fakeThemeReader) UpdateInvalidationStatus(_ context.Context, _, indicatorName string, status models.IndicatorStatus, note string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedIndicator = indicatorName
	f.updatedStatus = status
	f.updatedNote = note
	return nil
}

func TestListThemes(t *testing.T) {
	themes := &fakeThemeReader{summaries: []models.ThemeSummary{
		{ID: "theme-1", Statement: "Sterling loses reserve-adjacent status", BiasLabel: models.BiasNeg},
		{ID: "theme-2", Statement: "Energy transition accelerates past consensus", BiasLabel: models.BiasPos},
	}}
	handler := NewThemeHandler(themes, testLogger())

	rr := httptest.NewRecorder()
	asUser(handler.ListThemes).ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/themes", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Themes []models.ThemeSummary `json:"themes"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Themes) != 2 || resp.Themes[0].ID != "theme-1" {
		t.Errorf("unexpected themes: %+v", resp.Themes)
	}
}

func TestGetTheme(t *testing.T) {
	themes := &fakeThemeReader{detail: &models.ThemeDetail{
		Theme: models.Theme{ID: "theme-1", Statement: "Sterling loses reserve-adjacent status"},
	}}
	handler := NewThemeHandler(themes, testLogger())

	t.Run("found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		asUser(handler.GetTheme).ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/themes/theme-1", nil))

		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
		}
		var detail models.ThemeDetail
		if err := json.Unmarshal(rr.Body.Bytes(), &detail); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if detail.Theme.ID != "theme-1" {
			t.Errorf("theme ID = %q, want theme-1", detail.Theme.ID)
		}
	})

	t.Run("not found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		asUser(handler.GetTheme).ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/themes/theme-9", nil))

		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})
}

func TestRecordObservation(t *testing.T) {
	definitions := []models.IndicatorDefinition{
		{
			IndicatorName:     "Gilt auction bid-to-cover",
			SupportsDirection: models.HigherSupports,
			GreenThreshold:    1,
			YellowThreshold:   0,
			RedThreshold:      -1,
		},
		{
			IndicatorName:     "Sterling share of FX reserves",
			SupportsDirection: models.LowerSupports,
			GreenThreshold:    -1,
			YellowThreshold:   0,
			RedThreshold:      1,
		},
	}

	tests := []struct {
		name       string
		req        ObservationRequest
		wantStatus models.IndicatorStatus
	}{
		{
			name:       "higher supports green",
			req:        ObservationRequest{IndicatorName: "Gilt auction bid-to-cover", ObservedValue: 1.5},
			wantStatus: models.StatusGreen,
		},
		{
			name:       "higher supports yellow",
			req:        ObservationRequest{IndicatorName: "Gilt auction bid-to-cover", ObservedValue: 0.2},
			wantStatus: models.StatusYellow,
		},
		{
			name:       "higher supports red",
			req:        ObservationRequest{IndicatorName: "gilt auction bid-to-cover", ObservedValue: -0.4},
			wantStatus: models.StatusRed,
		},
		{
			name:       "lower supports inverts",
			req:        ObservationRequest{IndicatorName: "Sterling share of FX reserves", ObservedValue: 0.5},
			wantStatus: models.StatusRed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			themes := &fakeThemeReader{definitions: definitions}
			handler := NewThemeHandler(themes, testLogger())

			rr := httptest.NewRecorder()
			asUser(handler.RecordObservation).ServeHTTP(rr, authedRequest(t, http.MethodPatch, "/api/themes/theme-1/invalidation", tt.req))

			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
			}
			if themes.updatedStatus != tt.wantStatus {
				t.Errorf("stored status = %q, want %q", themes.updatedStatus, tt.wantStatus)
			}
		})
	}
}

func TestRecordObservationUnknownIndicator(t *testing.T) {
	themes := &fakeThemeReader{definitions: []models.IndicatorDefinition{
		{IndicatorName: "Gilt auction bid-to-cover", SupportsDirection: models.HigherSupports},
	}}
	handler := NewThemeHandler(themes, testLogger())

	rr := httptest.NewRecorder()
	asUser(handler.RecordObservation).ServeHTTP(rr, authedRequest(t, http.MethodPatch, "/api/themes/theme-1/invalidation", ObservationRequest{
		IndicatorName: "CPI surprise index",
		ObservedValue: 0.5,
	}))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
	if themes.updatedIndicator != "" {
		t.Errorf("update should not run for unknown indicator, got %q", themes.updatedIndicator)
	}
}

func TestRecordObservationRequiresIndicatorName(t *testing.T) {
	handler := NewThemeHandler(&fakeThemeReader{}, testLogger())

	rr := httptest.NewRecorder()
	asUser(handler.RecordObservation).ServeHTTP(rr, authedRequest(t, http.MethodPatch, "/api/themes/theme-1/invalidation", ObservationRequest{
		ObservedValue: 0.5,
	}))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}
