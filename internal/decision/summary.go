package decision

import (
	"fmt"
	"sort"

	"github.com/secondsight/secondsight/internal/models"
)

const summaryItems = 3

// percentile returns the nearest-rank percentile of values: floor of
// (n-1)*p, no interpolation. Deliberately simple so runs stay
// reproducible; not a principled estimator.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(float64(len(sorted)-1) * p)
	if idx < 0 {
		idx = 0
	}
	if idx > len(sorted)-1 {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// BranchImpacts scales the portfolio bias into each branch's contribution:
// x0.8 for BULL and x1.2 for BEAR relative to the base bias.
func BranchImpacts(bias float64, branches []models.Branch) []models.BranchImpact {
	impacts := make([]models.BranchImpact, 0, len(branches))
	for _, branch := range branches {
		scale := 1.0
		switch branch.Name {
		case models.BranchBull:
			scale = 0.8
		case models.BranchBear:
			scale = 1.2
		}
		impacts = append(impacts, models.BranchImpact{
			BranchName: branch.Name,
			Score:      bias * scale,
		})
	}
	return impacts
}

// BuildDecisionSummary synthesizes a 3-point sample per branch impact
// (x0.8, x1.0, x1.2) and takes the 10th/50th/90th nearest-rank percentile
// across all samples, then lists the top actions, monitors, and
// change-my-mind triggers.
func BuildDecisionSummary(
	branchImpacts []models.BranchImpact,
	recommendations []models.ExpressionRecommendation,
	indicators []models.IndicatorDefinition,
) models.DecisionSummary {
	samples := make([]float64, 0, len(branchImpacts)*3)
	for _, impact := range branchImpacts {
		samples = append(samples, impact.Score*0.8, impact.Score, impact.Score*1.2)
	}

	topActions := make([]string, 0, summaryItems)
	for _, rec := range recommendations {
		if !rec.Actionable {
			continue
		}
		topActions = append(topActions, fmt.Sprintf("%s %s (%.1f%% max)", rec.Action, rec.Symbol, rec.MaxPositionPct*100))
		if len(topActions) == summaryItems {
			break
		}
	}
	for len(topActions) < summaryItems {
		topActions = append(topActions, "No additional actionable change required.")
	}

	topMonitors := make([]string, 0, summaryItems)
	for _, ind := range indicators {
		topMonitors = append(topMonitors, ind.IndicatorName)
		if len(topMonitors) == summaryItems {
			break
		}
	}
	for len(topMonitors) < summaryItems {
		topMonitors = append(topMonitors, "Monitor thesis coherence versus branch probabilities.")
	}

	return models.DecisionSummary{
		PortfolioImpactP10: percentile(samples, 0.1),
		PortfolioImpactP50: percentile(samples, 0.5),
		PortfolioImpactP90: percentile(samples, 0.9),
		TopActions:         topActions,
		TopMonitors:        topMonitors,
		ChangeMyMind: []string{
			"Branch probabilities diverge materially from observed indicators.",
			"Core second-order assumptions fail for two review cycles.",
			"Portfolio impact distribution re-centers near neutral.",
		},
	}
}
