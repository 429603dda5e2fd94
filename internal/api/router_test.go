package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

type fakeStatsSource struct{}

func (fakeStatsSource) GetStats(_ context.Context, _, _ *time.Time) (*models.InferenceLogStats, error) {
	return &models.InferenceLogStats{TotalCalls: 3}, nil
}

func testMux() *http.ServeMux {
	mux := http.NewServeMux()
	SetupRoutes(mux,
		&fakeRunner{result: &models.AnalysisResult{ThemeID: "theme-1"}},
		&fakeThemeReader{},
		newFakeScenarioStore(),
		newFakeUniverseStore(),
		newFakeUserStore(),
		fakeStatsSource{},
		testAuthConfig(),
		testLogger())
	return mux
}

func TestRoutesRequireAuth(t *testing.T) {
	mux := testMux()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/analyze"},
		{http.MethodGet, "/api/themes"},
		{http.MethodGet, "/api/themes/theme-1"},
		{http.MethodPatch, "/api/themes/theme-1/invalidation"},
		{http.MethodGet, "/api/scenarios"},
		{http.MethodPost, "/api/scenarios/import-csv"},
		{http.MethodGet, "/api/universes"},
		{http.MethodGet, "/api/admin/inference-stats"},
		{http.MethodGet, "/api/auth/validate"},
	}

	for _, tt := range paths {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401 without token", rr.Code)
			}
		})
	}
}

func TestPublicAuthRoutes(t *testing.T) {
	mux := testMux()

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/register", nil))
	if rr.Code == http.StatusUnauthorized {
		t.Errorf("register should not require auth, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	if rr.Code == http.StatusUnauthorized {
		t.Errorf("login should not require auth, got %d", rr.Code)
	}
}

func TestAuthedRoutesDispatch(t *testing.T) {
	mux := testMux()

	t.Run("analyze", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodPost, "/api/analyze", sampleAnalyzeRequest()))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, body %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("themes list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/themes", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, body %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("inference stats", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/admin/inference-stats", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, body %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("validate token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/auth/validate", nil))
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, body %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, authedRequest(t, http.MethodGet, "/api/nope", nil))
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})
}
