// Package scoring reduces a validated reasoning output plus the input
// holdings into a single portfolio bias scalar in [-1, 1] with per-holding
// contributions.
package scoring

import (
	"fmt"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

// Fixed weight tables. Process-wide constants; never mutated after init.
var (
	impactScore = map[models.ImpactDirection]float64{
		models.ImpactPositive:  1,
		models.ImpactNegative:  -1,
		models.ImpactMixed:     0,
		models.ImpactUncertain: 0,
	}

	confidenceScore = map[models.ConfidenceLevel]float64{
		models.ConfidenceLow:  0.4,
		models.ConfidenceMed:  0.7,
		models.ConfidenceHigh: 1,
	}

	sensitivityScore = map[models.SensitivityLevel]float64{
		models.SensitivityLow:  0.5,
		models.SensitivityMed:  0.8,
		models.SensitivityHigh: 1,
	}
)

// NormalizeWeights returns one normalized weight per holding. With no
// explicit weights every holding gets 1/n; otherwise raw weights are
// renormalized to sum to 1. A zero raw sum is an error.
func NormalizeWeights(holdings []models.HoldingInput) ([]float64, error) {
	hasAny := false
	for _, h := range holdings {
		if h.Weight != nil {
			hasAny = true
			break
		}
	}

	weights := make([]float64, len(holdings))
	if !hasAny {
		if len(holdings) == 0 {
			return weights, nil
		}
		equal := 1 / float64(len(holdings))
		for i := range weights {
			weights[i] = equal
		}
		return weights, nil
	}

	total := 0.0
	for i, h := range holdings {
		if h.Weight != nil {
			weights[i] = *h.Weight
		}
		total += weights[i]
	}
	if total <= 0 {
		return nil, fmt.Errorf("provided holding weights sum to zero")
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights, nil
}

// BiasLabelFromScore maps a bias score onto the five contiguous label
// bands covering [-1, 1].
func BiasLabelFromScore(score float64) models.BiasLabel {
	switch {
	case score <= -0.6:
		return models.BiasStrongNeg
	case score <= -0.2:
		return models.BiasNeg
	case score < 0.2:
		return models.BiasNeutral
	case score < 0.6:
		return models.BiasPos
	default:
		return models.BiasStrongPos
	}
}

// ComputePortfolioBias computes each holding's contribution as
// impact x confidence x sensitivity x thesis probability x normalized
// weight, sums them, and clamps the total to [-1, 1]. Every holding must
// have a matching mapping; the orchestrator guarantees that structurally,
// so a miss here is a programming error surfaced as a plain error.
func ComputePortfolioBias(req *models.AnalyzeRequest, output *models.AnalysisOutput) (models.BiasResult, error) {
	weights, err := NormalizeWeights(req.Holdings)
	if err != nil {
		return models.BiasResult{}, err
	}

	mappingByKey := make(map[string]models.HoldingMapping, len(output.HoldingMappings))
	for _, m := range output.HoldingMappings {
		mappingByKey[textutil.NormalizeKey(m.HoldingName)] = m
	}

	contributions := make([]models.HoldingContribution, 0, len(req.Holdings))
	raw := 0.0
	for i, holding := range req.Holdings {
		mapping, ok := mappingByKey[textutil.NormalizeKey(holding.Name)]
		if !ok {
			return models.BiasResult{}, fmt.Errorf("missing mapping for holding %s", holding.Name)
		}

		score := impactScore[mapping.NetImpact] *
			confidenceScore[mapping.Confidence] *
			sensitivityScore[holding.Sensitivity] *
			req.Probability *
			weights[i]

		contributions = append(contributions, models.HoldingContribution{
			HoldingName: holding.Name,
			Score:       score,
			Weight:      weights[i],
		})
		raw += score
	}

	bias := raw
	if bias > 1 {
		bias = 1
	} else if bias < -1 {
		bias = -1
	}

	return models.BiasResult{
		Contributions: contributions,
		PortfolioBias: bias,
		BiasLabel:     BiasLabelFromScore(bias),
	}, nil
}
