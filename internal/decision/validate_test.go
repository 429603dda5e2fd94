package decision

import (
	"strings"
	"testing"

	"github.com/secondsight/secondsight/internal/models"
)

func TestValidatePortfolioRealityWeightSum(t *testing.T) {
	holdings := []models.HoldingInput{
		{Name: "A", Weight: floatPtr(0.3), Constraint: models.ConstraintFree},
		{Name: "B", Weight: floatPtr(0.2), Constraint: models.ConstraintLocked},
	}

	t.Run("out of range blocks", func(t *testing.T) {
		validation := ValidatePortfolioReality(holdings, false)
		if len(validation.Errors) != 1 {
			t.Fatalf("errors = %v, want 1", validation.Errors)
		}
		if !strings.Contains(validation.Errors[0], "between 98% and 102%") {
			t.Errorf("unexpected error: %q", validation.Errors[0])
		}
	})

	t.Run("override downgrades to warning", func(t *testing.T) {
		validation := ValidatePortfolioReality(holdings, true)
		if len(validation.Errors) != 0 {
			t.Fatalf("errors = %v, want none with override", validation.Errors)
		}
		found := false
		for _, w := range validation.Warnings {
			if strings.Contains(w, "override enabled") {
				found = true
			}
		}
		if !found {
			t.Errorf("expected override warning, got %v", validation.Warnings)
		}
	})

	t.Run("full sum passes", func(t *testing.T) {
		full := []models.HoldingInput{
			{Name: "A", Weight: floatPtr(0.5), Constraint: models.ConstraintFree},
			{Name: "B", Weight: floatPtr(0.5), Constraint: models.ConstraintLocked},
		}
		validation := ValidatePortfolioReality(full, false)
		if len(validation.Errors) != 0 {
			t.Errorf("errors = %v, want none", validation.Errors)
		}
	})
}

func TestValidatePortfolioRealityNoWeights(t *testing.T) {
	holdings := []models.HoldingInput{
		{Name: "A", Constraint: models.ConstraintFree},
		{Name: "B", Constraint: models.ConstraintLocked},
	}

	validation := ValidatePortfolioReality(holdings, false)
	if len(validation.Errors) != 0 {
		t.Fatalf("errors = %v, want none", validation.Errors)
	}
	found := false
	for _, w := range validation.Warnings {
		if strings.Contains(w, "Equal-weighting") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected equal-weighting warning, got %v", validation.Warnings)
	}
}

func TestValidatePortfolioRealityConcentrationWarning(t *testing.T) {
	holdings := []models.HoldingInput{
		{Name: "Concentrated Position", Weight: floatPtr(0.6), Constraint: models.ConstraintFree},
		{Name: "B", Weight: floatPtr(0.4), Constraint: models.ConstraintLocked},
	}

	validation := ValidatePortfolioReality(holdings, false)
	found := false
	for _, w := range validation.Warnings {
		if strings.Contains(w, "Concentrated Position") && strings.Contains(w, "above 25%") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected concentration warning, got %v", validation.Warnings)
	}
}

func TestValidatePortfolioRealitySuspiciousWeights(t *testing.T) {
	holdings := []models.HoldingInput{
		{Name: "Percent Entry", Weight: floatPtr(60), Constraint: models.ConstraintFree},
		{Name: "Decimal Entry", Weight: floatPtr(0.4), Constraint: models.ConstraintFree},
	}

	validation := ValidatePortfolioReality(holdings, true)
	if len(validation.SuspiciousWeightRows) != 1 || validation.SuspiciousWeightRows[0] != "Percent Entry" {
		t.Errorf("suspicious rows = %v, want [Percent Entry]", validation.SuspiciousWeightRows)
	}
}

func TestValidatePortfolioRealityNoFreeCapital(t *testing.T) {
	holdings := []models.HoldingInput{
		{Name: "A", Weight: floatPtr(0.5), Constraint: models.ConstraintLocked},
		{Name: "B", Weight: floatPtr(0.5), Constraint: models.ConstraintSemiLocked},
	}

	validation := ValidatePortfolioReality(holdings, false)
	if validation.ActionableWeight != 0 {
		t.Errorf("actionable weight = %v, want 0", validation.ActionableWeight)
	}
	found := false
	for _, w := range validation.Warnings {
		if strings.Contains(w, "No FREE capital") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected no-free-capital warning, got %v", validation.Warnings)
	}
}
