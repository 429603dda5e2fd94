package reasoning

import (
	"context"
	"fmt"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

// MockCapability produces a deterministic, invariant-satisfying output
// from the request alone. It backs local development and tests when no
// provider API key is configured.
type MockCapability struct{}

// NewMockCapability creates a reasoning capability that never calls an
// external API.
func NewMockCapability() *MockCapability {
	return &MockCapability{}
}

// ModelName reports the mock identifier recorded in audit snapshots.
func (m *MockCapability) ModelName() string {
	return "mock-reasoner"
}

// GenerateAnalysis builds a plausible causal chain from the statement and
// one mapping per unique holding. Output is stable for a given request.
func (m *MockCapability) GenerateAnalysis(ctx context.Context, req *models.AnalyzeRequest, hint string) (*models.AnalysisOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	statement := textutil.CollapseSpace(req.Statement)

	output := &models.AnalysisOutput{
		EffectsByLayer: models.EffectsByLayer{
			First: []models.CausalEffect{
				{
					Description:     fmt.Sprintf("Direct repricing of assets most exposed to: %s", statement),
					ImpactDirection: models.ImpactNegative,
					Confidence:      models.ConfidenceHigh,
				},
				{
					Description:     "Immediate shift in hedging demand across rate and currency markets",
					ImpactDirection: models.ImpactMixed,
					Confidence:      models.ConfidenceMed,
				},
			},
			Second: []models.CausalEffect{
				{
					Description:     "Capital reallocation toward sectors insulated from the shift",
					ImpactDirection: models.ImpactPositive,
					Confidence:      models.ConfidenceMed,
				},
				{
					Description:     "Margin compression for businesses on the wrong side of the adjustment",
					ImpactDirection: models.ImpactNegative,
					Confidence:      models.ConfidenceMed,
				},
			},
			Third: []models.CausalEffect{
				{
					Description:     "Supply-chain and financing relationships rewire around the new regime",
					ImpactDirection: models.ImpactUncertain,
					Confidence:      models.ConfidenceLow,
				},
			},
		},
		Assumptions: []models.Assumption{
			{
				Assumption:       "Policy response lags the shift by at least two quarters",
				BreakpointSignal: "Emergency policy action within 90 days of onset",
			},
			{
				Assumption:       "Market liquidity remains orderly during repricing",
				BreakpointSignal: "Bid-ask spreads in major benchmarks widening beyond crisis thresholds",
			},
		},
		LeadingIndicators: []models.LeadingIndicator{
			{
				Name:      "Cross-asset correlation index",
				Rationale: "Rising correlation signals the shift is being priced as systemic",
			},
			{
				Name:      "Sector relative-strength spread",
				Rationale: "Divergence confirms capital rotation into insulated sectors",
			},
		},
	}

	seen := make(map[string]struct{}, len(req.Holdings))
	for _, holding := range req.Holdings {
		key := textutil.NormalizeKey(holding.Name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		impact := models.ImpactMixed
		if holding.Sensitivity == models.SensitivityHigh {
			impact = models.ImpactNegative
		}
		output.HoldingMappings = append(output.HoldingMappings, models.HoldingMapping{
			HoldingName:  holding.Name,
			ExposureType: "Broad thesis exposure through sector and factor loadings",
			NetImpact:    impact,
			Mechanism:    "Revenue and discount-rate channels transmit the shift to this position",
			Confidence:   models.ConfidenceMed,
		})
	}

	output.AssetRecommendations = []models.AssetRecommendation{
		{
			AssetName:   "Insulated-sector basket",
			Category:    "Equity",
			SourceLayer: models.RecommendationSecond,
			Direction:   models.ImpactPositive,
			Action:      "OVERWEIGHT",
			Rationale:   "Second-order capital rotation favors sectors with low direct exposure",
			Confidence:  models.ConfidenceMed,
			Mechanism:   "Flows follow relative earnings resilience as repricing completes",
			TimeHorizon: "6-18 months",
		},
		{
			AssetName:   "Exposed-sector basket",
			Category:    "Equity",
			SourceLayer: models.RecommendationSecond,
			Direction:   models.ImpactNegative,
			Action:      "UNDERWEIGHT",
			Rationale:   "Margin compression is not yet reflected in consensus estimates",
			Confidence:  models.ConfidenceMed,
			Mechanism:   "Earnings revisions lag the causal chain by one to two quarters",
			TimeHorizon: "6-18 months",
		},
	}

	return output, nil
}
