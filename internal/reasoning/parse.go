package reasoning

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/secondsight/secondsight/internal/models"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*({.+})\\s*```")

// extractJSON pulls the JSON object out of a model response, tolerating
// markdown code fences around it.
func extractJSON(text string) string {
	if matches := fencedJSON.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// ParseAnalysisOutput unmarshals a raw model response into the typed
// output contract and validates its enum fields. A violation here is a
// contract error the orchestrator retries once.
func ParseAnalysisOutput(raw string) (*models.AnalysisOutput, error) {
	var output models.AnalysisOutput
	if err := json.Unmarshal([]byte(extractJSON(raw)), &output); err != nil {
		return nil, fmt.Errorf("reasoning response is not valid JSON: %w", err)
	}

	for _, layer := range output.EffectsByLayer.Ordered() {
		for i, effect := range layer.Effects {
			if effect.Description == "" {
				return nil, fmt.Errorf("%s-order effect %d has an empty description", layer.Layer, i)
			}
			if !effect.ImpactDirection.Valid() {
				return nil, fmt.Errorf("%s-order effect %d has invalid impact direction %q", layer.Layer, i, effect.ImpactDirection)
			}
			if !effect.Confidence.Valid() {
				return nil, fmt.Errorf("%s-order effect %d has invalid confidence %q", layer.Layer, i, effect.Confidence)
			}
		}
	}

	for i, mapping := range output.HoldingMappings {
		if mapping.HoldingName == "" {
			return nil, fmt.Errorf("holding mapping %d has an empty holding name", i)
		}
		if !mapping.NetImpact.Valid() {
			return nil, fmt.Errorf("holding mapping %q has invalid net impact %q", mapping.HoldingName, mapping.NetImpact)
		}
		if !mapping.Confidence.Valid() {
			return nil, fmt.Errorf("holding mapping %q has invalid confidence %q", mapping.HoldingName, mapping.Confidence)
		}
	}

	for i, rec := range output.AssetRecommendations {
		if rec.AssetName == "" {
			return nil, fmt.Errorf("asset recommendation %d has an empty asset name", i)
		}
		switch rec.SourceLayer {
		case models.RecommendationSecond, models.RecommendationThird, models.RecommendationFourth:
		default:
			return nil, fmt.Errorf("asset recommendation %q has invalid source layer %q", rec.AssetName, rec.SourceLayer)
		}
		if !rec.Direction.Valid() {
			return nil, fmt.Errorf("asset recommendation %q has invalid direction %q", rec.AssetName, rec.Direction)
		}
		if !rec.Confidence.Valid() {
			return nil, fmt.Errorf("asset recommendation %q has invalid confidence %q", rec.AssetName, rec.Confidence)
		}
	}

	return &output, nil
}
