package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

type fakeThemeStore struct {
	savedResults []*models.AnalysisResult
	failures     []error
	saveErr      error
}

func (s *fakeThemeStore) SaveAnalysis(ctx context.Context, theme models.Theme, result *models.AnalysisResult, modelName, promptVersion string) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	s.savedResults = append(s.savedResults, result)
	return "theme-1", nil
}

func (s *fakeThemeStore) SaveFailure(ctx context.Context, theme models.Theme, modelName, promptVersion string, cause error) (string, error) {
	s.failures = append(s.failures, cause)
	return "theme-failed", nil
}

type fakeScenarioStore struct {
	scenario *models.PortfolioScenario
}

func (s *fakeScenarioStore) Get(ctx context.Context, id string) (*models.PortfolioScenario, error) {
	if s.scenario == nil || s.scenario.ID != id {
		return nil, errors.New("scenario not found")
	}
	return s.scenario, nil
}

type fakeUniverseStore struct {
	version *models.UniverseVersion
}

func (s *fakeUniverseStore) GetVersion(ctx context.Context, id string) (*models.UniverseVersion, error) {
	if s.version == nil || s.version.ID != id {
		return nil, errors.New("universe version not found")
	}
	return s.version, nil
}

type fakeReasoner struct {
	output *models.AnalysisOutput
	err    error
}

func (r *fakeReasoner) Run(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisOutput, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.output, nil
}

func (r *fakeReasoner) ModelName() string { return "fake-model" }

func weight(w float64) *float64 { return &w }

func pipelineHoldings() []models.HoldingInput {
	return []models.HoldingInput{
		{Name: "Global Equity Fund", Weight: weight(0.6), Sensitivity: models.SensitivityHigh, Constraint: models.ConstraintFree, Purpose: models.PurposeLongTermGrowth},
		{Name: "Gilt Ladder", Weight: weight(0.4), Sensitivity: models.SensitivityLow, Constraint: models.ConstraintLocked, Purpose: models.PurposeSpend0To12M},
	}
}

func pipelineOutput() *models.AnalysisOutput {
	return &models.AnalysisOutput{
		EffectsByLayer: models.EffectsByLayer{
			First: []models.CausalEffect{
				{Description: "Currency depreciation", ImpactDirection: models.ImpactNegative, Confidence: models.ConfidenceHigh},
				{Description: "Imported inflation", ImpactDirection: models.ImpactNegative, Confidence: models.ConfidenceMed},
			},
			Second: []models.CausalEffect{
				{Description: "Capital rotation", ImpactDirection: models.ImpactPositive, Confidence: models.ConfidenceMed},
				{Description: "Margin compression", ImpactDirection: models.ImpactNegative, Confidence: models.ConfidenceMed},
			},
		},
		Assumptions: []models.Assumption{
			{Assumption: "Policy response lags the shift", BreakpointSignal: "Emergency action within 90 days"},
		},
		LeadingIndicators: []models.LeadingIndicator{
			{Name: "Cross-asset correlation", Rationale: "Systemic repricing signal"},
		},
		HoldingMappings: []models.HoldingMapping{
			{HoldingName: "Global Equity Fund", NetImpact: models.ImpactNegative, Confidence: models.ConfidenceHigh},
			{HoldingName: "Gilt Ladder", NetImpact: models.ImpactPositive, Confidence: models.ConfidenceMed},
		},
		AssetRecommendations: []models.AssetRecommendation{
			{AssetName: "Exporter basket", SourceLayer: models.RecommendationSecond, Direction: models.ImpactPositive, Action: "OVERWEIGHT", Confidence: models.ConfidenceMed},
		},
	}
}

func pipelineRequest() *models.AnalyzeRequest {
	return &models.AnalyzeRequest{
		Statement:     "Sterling loses reserve-adjacent status over the coming decade",
		Probability:   0.4,
		HorizonMonths: 24,
		Holdings:      pipelineHoldings(),
	}
}

func newTestAnalyzer(themes *fakeThemeStore, reasoner *fakeReasoner, scenarios *fakeScenarioStore, universes *fakeUniverseStore) *Analyzer {
	if scenarios == nil {
		scenarios = &fakeScenarioStore{}
	}
	if universes == nil {
		universes = &fakeUniverseStore{}
	}
	return New(reasoner, themes, scenarios, universes, nil, slog.Default())
}

func TestAnalyzeHappyPath(t *testing.T) {
	themes := &fakeThemeStore{}
	a := newTestAnalyzer(themes, &fakeReasoner{output: pipelineOutput()}, nil, nil)

	result, err := a.Analyze(context.Background(), pipelineRequest(), "user-1")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.ThemeID != "theme-1" {
		t.Errorf("unexpected theme ID %q", result.ThemeID)
	}
	if len(themes.savedResults) != 1 {
		t.Fatalf("expected 1 saved result, got %d", len(themes.savedResults))
	}

	// NEG/HIGH on a 60% high-sensitivity holding dominates POS/MED on the
	// low-sensitivity remainder at probability 0.4.
	wantBias := -1*1.0*1.0*0.4*0.6 + 1*0.7*0.5*0.4*0.4
	if math.Abs(result.Bias.PortfolioBias-wantBias) > 1e-9 {
		t.Errorf("bias = %v, want %v", result.Bias.PortfolioBias, wantBias)
	}
	if result.Bias.BiasLabel != models.BiasNeutral {
		t.Errorf("bias label = %s, want NEUTRAL", result.Bias.BiasLabel)
	}

	sum := 0.0
	for _, b := range result.Branches {
		sum += b.Probability
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("branch probabilities sum to %v", sum)
	}

	// 4 effects expanded under each of 3 branches.
	if len(result.NodeShocks) != 12 {
		t.Errorf("expected 12 node shocks, got %d", len(result.NodeShocks))
	}

	if len(result.Recommendations) != 0 {
		t.Errorf("no universe version given, expected no recommendations")
	}

	if len(result.ExposureContributions) != 2 {
		t.Fatalf("expected 2 exposure contributions, got %d", len(result.ExposureContributions))
	}
	first := result.ExposureContributions[0]
	if first.HoldingName != "Global Equity Fund" || first.Direction != "DOWNSIDE" {
		t.Errorf("most negative contribution should lead: %+v", first)
	}
	if result.ExposureContributions[1].Direction != "UPSIDE" {
		t.Errorf("positive contribution should be UPSIDE")
	}

	if len(result.DecisionSummary.TopActions) != 3 || len(result.DecisionSummary.TopMonitors) != 3 {
		t.Errorf("decision summary must carry exactly 3 actions and 3 monitors")
	}
}

func TestAnalyzeLoadsScenarioHoldings(t *testing.T) {
	themes := &fakeThemeStore{}
	scenarios := &fakeScenarioStore{scenario: &models.PortfolioScenario{
		ID:       "scn-1",
		Name:     "Retirement core",
		Holdings: pipelineHoldings(),
	}}
	a := newTestAnalyzer(themes, &fakeReasoner{output: pipelineOutput()}, scenarios, nil)

	req := pipelineRequest()
	req.Holdings = nil
	req.PortfolioScenarioID = "scn-1"

	result, err := a.Analyze(context.Background(), req, "user-1")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(result.Bias.Contributions) != 2 {
		t.Errorf("scenario holdings not used: %d contributions", len(result.Bias.Contributions))
	}
}

func TestAnalyzeRejectsBrokenWeightSum(t *testing.T) {
	themes := &fakeThemeStore{}
	a := newTestAnalyzer(themes, &fakeReasoner{output: pipelineOutput()}, nil, nil)

	req := pipelineRequest()
	req.Holdings[0].Weight = weight(0.3)
	req.Holdings[1].Weight = weight(0.2)

	_, err := a.Analyze(context.Background(), req, "user-1")
	if err == nil {
		t.Fatal("expected error for broken weight sum")
	}
	if !strings.Contains(err.Error(), "portfolio validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if len(themes.failures) != 1 {
		t.Errorf("gate rejection must persist a failure audit, got %d", len(themes.failures))
	}
	if len(themes.savedResults) != 0 {
		t.Error("no result should be saved on rejection")
	}
}

func TestAnalyzePersistsAuditOnReasoningFailure(t *testing.T) {
	themes := &fakeThemeStore{}
	a := newTestAnalyzer(themes, &fakeReasoner{err: errors.New("reasoning failed after retry: bad output")}, nil, nil)

	_, err := a.Analyze(context.Background(), pipelineRequest(), "user-1")
	if err == nil {
		t.Fatal("expected reasoning error to propagate")
	}
	if len(themes.failures) != 1 {
		t.Fatalf("expected 1 failure audit, got %d", len(themes.failures))
	}
	if !strings.Contains(themes.failures[0].Error(), "reasoning failed after retry") {
		t.Errorf("failure audit carries wrong cause: %v", themes.failures[0])
	}
}

func TestAnalyzeScoresUniverseRecommendations(t *testing.T) {
	themes := &fakeThemeStore{}
	universes := &fakeUniverseStore{version: &models.UniverseVersion{
		ID:   "uv-1",
		Name: "Core equities",
		Rows: []models.UniverseRow{
			{
				Symbol:                "EXPT",
				CompanyName:           "Exporter PLC",
				AssetType:             models.AssetEquity,
				LiquidityClass:        "daily",
				MaxPositionDefaultPct: 0.05,
				ExposureVector:        map[string]float64{"exp_capital-rotation": 1.0},
			},
			{
				Symbol:                "IMPT",
				CompanyName:           "Importer PLC",
				AssetType:             models.AssetEquity,
				LiquidityClass:        "daily",
				MaxPositionDefaultPct: 0.05,
				ExposureVector:        map[string]float64{"exp_margin-compression": 1.0},
			},
		},
	}}
	a := newTestAnalyzer(themes, &fakeReasoner{output: pipelineOutput()}, nil, universes)

	req := pipelineRequest()
	req.UniverseVersionID = "uv-1"

	result, err := a.Analyze(context.Background(), req, "user-1")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %d", len(result.Recommendations))
	}

	var long, short *models.ExpressionRecommendation
	for i := range result.Recommendations {
		rec := &result.Recommendations[i]
		switch rec.Direction {
		case models.DirectionPos:
			long = rec
		case models.DirectionNeg:
			short = rec
		}
	}
	if long == nil || long.Symbol != "EXPT" || long.Action != "OVERWEIGHT" {
		t.Errorf("positive-exposure row should be a long: %+v", long)
	}
	if short == nil || short.Symbol != "IMPT" || short.Action != "UNDERWEIGHT" {
		t.Errorf("negative-shock exposure should be a short: %+v", short)
	}

	// Score 0.092 * 0.7 * 0.9 lands in the MEDIUM band, whose 2.5% base
	// cap undercuts both the free-weight bound (3%) and the row default.
	if long.SizingBand != models.SizingMedium {
		t.Errorf("sizing band = %s, want MEDIUM", long.SizingBand)
	}
	if math.Abs(long.MaxPositionPct-0.025) > 1e-9 {
		t.Errorf("max position = %v, want 0.025", long.MaxPositionPct)
	}
}

func TestAnalyzeRejectsInvalidRequest(t *testing.T) {
	themes := &fakeThemeStore{}
	a := newTestAnalyzer(themes, &fakeReasoner{output: pipelineOutput()}, nil, nil)

	req := pipelineRequest()
	req.Statement = "too short"

	_, err := a.Analyze(context.Background(), req, "user-1")
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(themes.failures) != 0 {
		t.Error("input validation failures must not create audit rows")
	}
}
