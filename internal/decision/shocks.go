package decision

import (
	"fmt"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

const (
	maxEffectsPerLayer = 3
	nodeKeyMaxLen      = 80
	nodeLabelMaxLen    = 180
	fallbackNodeKey    = "macro-node"

	baseMagnitude          = 0.08
	uncertainBaseMagnitude = 0.02
	bullMultiplier         = 1.2
	bearMultiplier         = 1.4
)

func strengthFromLayer(layer models.CausalLayer) models.ShockStrength {
	switch layer {
	case models.LayerFirst:
		return models.StrengthStrong
	case models.LayerSecond:
		return models.StrengthMed
	default:
		return models.StrengthWeak
	}
}

func lagFromLayer(layer models.CausalLayer) models.LagBand {
	switch layer {
	case models.LayerFirst:
		return models.LagImmediate
	case models.LayerSecond:
		return models.LagM3To6
	case models.LayerThird:
		return models.LagM6To18
	default:
		return models.LagM18Plus
	}
}

// BuildNodeShocks expands causal effects into per-branch, per-node shock
// records. For each branch and layer only the first three effects are
// expanded. The output is a pure function of the reasoning output and the
// branch set, which gives the qualitative chain a reproducible
// quantitative shape for the scoring stages.
func BuildNodeShocks(output *models.AnalysisOutput, branches []models.Branch) []models.NodeShock {
	shocks := make([]models.NodeShock, 0, len(branches)*4*maxEffectsPerLayer)

	for _, branch := range branches {
		multiplier := 1.0
		switch branch.Name {
		case models.BranchBull:
			multiplier = bullMultiplier
		case models.BranchBear:
			multiplier = bearMultiplier
		}

		for _, layer := range output.EffectsByLayer.Ordered() {
			effects := layer.Effects
			if len(effects) > maxEffectsPerLayer {
				effects = effects[:maxEffectsPerLayer]
			}

			for _, effect := range effects {
				direction := models.ShockFlat
				sign := 0.0
				switch effect.ImpactDirection {
				case models.ImpactPositive:
					direction = models.ShockUp
					sign = 1
				case models.ImpactNegative:
					direction = models.ShockDown
					sign = -1
				}

				magnitude := baseMagnitude
				if effect.ImpactDirection == models.ImpactUncertain {
					magnitude = uncertainBaseMagnitude
				}

				shocks = append(shocks, models.NodeShock{
					BranchName:   branch.Name,
					NodeKey:      textutil.Slug(effect.Description, nodeKeyMaxLen, fallbackNodeKey),
					NodeLabel:    textutil.Truncate(effect.Description, nodeLabelMaxLen),
					Direction:    direction,
					MagnitudePct: sign * magnitude * multiplier,
					Strength:     strengthFromLayer(layer.Layer),
					Lag:          lagFromLayer(layer.Layer),
					Confidence:   effect.Confidence,
					EvidenceNote: fmt.Sprintf("Derived from %s-order effect chain.", strings.ToLower(string(layer.Layer))),
				})
			}
		}
	}

	return shocks
}
