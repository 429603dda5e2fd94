// Package analyzer coordinates one analysis run end to end: input
// normalization, the portfolio reality gate, the reasoning call, the
// deterministic reductions, and atomic persistence with an audit trail.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/secondsight/secondsight/internal/decision"
	"github.com/secondsight/secondsight/internal/metrics"
	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/reasoning"
	"github.com/secondsight/secondsight/internal/scoring"
)

// ThemeStore persists completed and failed runs.
type ThemeStore interface {
	SaveAnalysis(ctx context.Context, theme models.Theme, result *models.AnalysisResult, modelName, promptVersion string) (string, error)
	SaveFailure(ctx context.Context, theme models.Theme, modelName, promptVersion string, cause error) (string, error)
}

// ScenarioStore resolves saved holdings sets.
type ScenarioStore interface {
	Get(ctx context.Context, id string) (*models.PortfolioScenario, error)
}

// UniverseStore resolves uploaded universe versions.
type UniverseStore interface {
	GetVersion(ctx context.Context, id string) (*models.UniverseVersion, error)
}

// Reasoner runs the validate-and-retry reasoning loop.
type Reasoner interface {
	Run(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisOutput, error)
	ModelName() string
}

// Analyzer drives the analysis pipeline.
type Analyzer struct {
	reasoner  Reasoner
	themes    ThemeStore
	scenarios ScenarioStore
	universes UniverseStore
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates an analyzer. The collector may be nil.
func New(reasoner Reasoner, themes ThemeStore, scenarios ScenarioStore, universes UniverseStore, collector *metrics.Collector, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		reasoner:  reasoner,
		themes:    themes,
		scenarios: scenarios,
		universes: universes,
		collector: collector,
		logger:    logger,
	}
}

func (a *Analyzer) observe(outcome string, start time.Time) {
	if a.collector != nil {
		a.collector.ObserveRun(outcome, time.Since(start))
	}
}

// Analyze runs the full pipeline for one request. Input validation
// failures return without persistence; failures past the gate still write
// a theme and a neutral audit snapshot so the attempt is traceable.
func (a *Analyzer) Analyze(ctx context.Context, req *models.AnalyzeRequest, userID string) (*models.AnalysisResult, error) {
	start := time.Now()

	if len(req.Holdings) == 0 && req.PortfolioScenarioID != "" {
		scenario, err := a.scenarios.Get(ctx, req.PortfolioScenarioID)
		if err != nil {
			a.observe("rejected", start)
			return nil, fmt.Errorf("failed to load portfolio scenario: %w", err)
		}
		req.Holdings = scenario.Holdings
	}

	models.NormalizeHoldingWeights(req.Holdings)
	if err := req.Validate(); err != nil {
		a.observe("rejected", start)
		return nil, err
	}

	theme := models.Theme{
		UserID:              userID,
		Statement:           req.Statement,
		Probability:         req.Probability,
		HorizonMonths:       req.HorizonMonths,
		PortfolioScenarioID: req.PortfolioScenarioID,
	}

	validation := decision.ValidatePortfolioReality(req.Holdings, req.AllowWeightOverride)
	if len(validation.Errors) > 0 {
		cause := fmt.Errorf("portfolio validation failed: %s", strings.Join(validation.Errors, " | "))
		a.recordFailure(ctx, theme, cause)
		a.observe("rejected", start)
		return nil, cause
	}

	output, err := a.reasoner.Run(ctx, req)
	if err != nil {
		a.recordFailure(ctx, theme, err)
		a.observe("failed", start)
		return nil, err
	}

	bias, err := scoring.ComputePortfolioBias(req, output)
	if err != nil {
		a.recordFailure(ctx, theme, err)
		a.observe("failed", start)
		return nil, err
	}

	branches := decision.NormalizeBranchProbabilities(req.BranchOverrides)
	shocks := decision.BuildNodeShocks(output, branches)
	indicators := decision.DeriveIndicatorDefinitions(output)

	var recommendations []models.ExpressionRecommendation
	if req.UniverseVersionID != "" {
		version, err := a.universes.GetVersion(ctx, req.UniverseVersionID)
		if err != nil {
			a.recordFailure(ctx, theme, fmt.Errorf("failed to load universe version: %w", err))
			a.observe("failed", start)
			return nil, fmt.Errorf("failed to load universe version: %w", err)
		}
		if len(version.Rows) > 0 {
			recommendations = decision.BuildExpressionRecommendations(branches, shocks, version.Rows, req.Holdings, req.HorizonMonths)
		}
	}

	branchImpacts := decision.BranchImpacts(bias.PortfolioBias, branches)
	summary := decision.BuildDecisionSummary(branchImpacts, recommendations, indicators)

	result := &models.AnalysisResult{
		Bias:                  bias,
		Analysis:              *output,
		PortfolioValidation:   validation,
		Branches:              branches,
		NodeShocks:            shocks,
		Recommendations:       recommendations,
		IndicatorDefinitions:  indicators,
		ExposureContributions: exposureContributions(bias.Contributions),
		DecisionSummary:       summary,
	}

	themeID, err := a.themes.SaveAnalysis(ctx, theme, result, a.reasoner.ModelName(), reasoning.PromptVersion)
	if err != nil {
		a.observe("failed", start)
		return nil, fmt.Errorf("failed to persist analysis: %w", err)
	}
	result.ThemeID = themeID

	a.logger.Info("analysis run completed",
		"theme_id", themeID,
		"bias", bias.PortfolioBias,
		"label", bias.BiasLabel,
		"node_shocks", len(shocks),
		"recommendations", len(recommendations),
		"duration_ms", time.Since(start).Milliseconds())
	a.observe("success", start)

	return result, nil
}

// recordFailure writes the audit theme and neutral snapshot for a run that
// produced no result. Persistence errors here are logged, not propagated,
// so the original cause reaches the caller.
func (a *Analyzer) recordFailure(ctx context.Context, theme models.Theme, cause error) {
	if _, err := a.themes.SaveFailure(ctx, theme, a.reasoner.ModelName(), reasoning.PromptVersion, cause); err != nil {
		a.logger.Error("failed to persist failure audit", "error", err, "cause", cause)
	}
}

// exposureContributions annotates per-holding contributions with their
// side and orders them most negative first.
func exposureContributions(contributions []models.HoldingContribution) []models.ExposureContribution {
	annotated := make([]models.ExposureContribution, 0, len(contributions))
	for _, c := range contributions {
		direction := "UPSIDE"
		if c.Score < 0 {
			direction = "DOWNSIDE"
		}
		annotated = append(annotated, models.ExposureContribution{HoldingContribution: c, Direction: direction})
	}
	sort.SliceStable(annotated, func(i, j int) bool {
		return annotated[i].Score < annotated[j].Score
	})
	return annotated
}
