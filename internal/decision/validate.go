package decision

import (
	"fmt"

	"github.com/secondsight/secondsight/internal/models"
)

const (
	weightSumLowerBound    = 0.98
	weightSumUpperBound    = 1.02
	concentrationThreshold = 0.25
)

// ValidatePortfolioReality sanity-checks a holdings set before the
// reasoning call is made. Errors block the pipeline; warnings travel with
// the result for the caller to display.
func ValidatePortfolioReality(holdings []models.HoldingInput, allowWeightOverride bool) models.PortfolioValidation {
	validation := models.PortfolioValidation{
		Warnings:             []string{},
		Errors:               []string{},
		SuspiciousWeightRows: []string{},
	}

	providedCount := 0
	for _, h := range holdings {
		if h.Weight != nil {
			providedCount++
			validation.WeightSum += *h.Weight
		}
	}

	if providedCount > 0 {
		if validation.WeightSum < weightSumLowerBound || validation.WeightSum > weightSumUpperBound {
			msg := fmt.Sprintf("Weight sum is %.2f%%. It must be between 98%% and 102%%.", validation.WeightSum*100)
			if allowWeightOverride {
				validation.Warnings = append(validation.Warnings, fmt.Sprintf("Weight sum is %.2f%% (override enabled).", validation.WeightSum*100))
			} else {
				validation.Errors = append(validation.Errors, msg)
			}
		}
	} else {
		validation.Warnings = append(validation.Warnings, "No explicit weights provided. Equal-weighting will be used for scoring.")
	}

	for _, h := range holdings {
		if h.Weight == nil {
			continue
		}
		if *h.Weight > concentrationThreshold {
			validation.Warnings = append(validation.Warnings, fmt.Sprintf("Holding %s is above 25%%. Confirm this concentration is intentional.", h.Name))
		}
		// A raw weight sitting between 1 and 99 alongside sibling holdings
		// looks like a percent entered where a decimal was expected.
		if *h.Weight > 1 && *h.Weight < 99 && len(holdings) > 1 {
			validation.SuspiciousWeightRows = append(validation.SuspiciousWeightRows, h.Name)
		}
	}
	if len(validation.SuspiciousWeightRows) > 0 {
		validation.Warnings = append(validation.Warnings, "Suspicious weights detected. These look like percent values but should be decimals.")
	}

	for _, h := range holdings {
		if h.Constraint == models.ConstraintFree && h.Weight != nil {
			validation.ActionableWeight += *h.Weight
		}
	}
	if validation.ActionableWeight <= 0 {
		validation.Warnings = append(validation.Warnings, "No FREE capital detected; recommendations may be non-actionable.")
	}

	return validation
}
