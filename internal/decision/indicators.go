package decision

import "github.com/secondsight/secondsight/internal/models"

const maxIndicatorDefinitions = 5

// DeriveIndicatorDefinitions turns the first five leading indicators from
// the reasoning output into monitoring definitions. Thresholds default to
// {green:1, yellow:0, red:-1} with HIGHER_SUPPORTS over a 3-6 month
// window, a coarse default pending manual tuning.
func DeriveIndicatorDefinitions(output *models.AnalysisOutput) []models.IndicatorDefinition {
	indicators := output.LeadingIndicators
	if len(indicators) > maxIndicatorDefinitions {
		indicators = indicators[:maxIndicatorDefinitions]
	}

	defs := make([]models.IndicatorDefinition, 0, len(indicators))
	for _, indicator := range indicators {
		defs = append(defs, models.IndicatorDefinition{
			IndicatorName:     indicator.Name,
			SupportsDirection: models.HigherSupports,
			GreenThreshold:    1,
			YellowThreshold:   0,
			RedThreshold:      -1,
			ExpectedWindow:    "3-6 months",
		})
	}
	return defs
}

// StatusFromObservedValue classifies an observation against a definition.
// For HIGHER_SUPPORTS the thresholds are lower bounds; for LOWER_SUPPORTS
// the comparisons invert.
func StatusFromObservedValue(observed float64, def models.IndicatorDefinition) models.IndicatorStatus {
	if def.SupportsDirection == models.HigherSupports {
		switch {
		case observed >= def.GreenThreshold:
			return models.StatusGreen
		case observed >= def.YellowThreshold:
			return models.StatusYellow
		default:
			return models.StatusRed
		}
	}
	switch {
	case observed <= def.GreenThreshold:
		return models.StatusGreen
	case observed <= def.YellowThreshold:
		return models.StatusYellow
	default:
		return models.StatusRed
	}
}
