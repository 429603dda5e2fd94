package models

import (
	"fmt"

	"github.com/secondsight/secondsight/internal/textutil"
)

// ImpactDirection describes the directional effect of a causal node or
// holding mapping.
type ImpactDirection string

const (
	ImpactPositive  ImpactDirection = "POS"
	ImpactNegative  ImpactDirection = "NEG"
	ImpactMixed     ImpactDirection = "MIXED"
	ImpactUncertain ImpactDirection = "UNCERTAIN"
)

// Valid reports whether the direction is one of the known values.
func (d ImpactDirection) Valid() bool {
	switch d {
	case ImpactPositive, ImpactNegative, ImpactMixed, ImpactUncertain:
		return true
	}
	return false
}

// ConfidenceLevel is the coarse confidence band attached to model output.
type ConfidenceLevel string

const (
	ConfidenceLow  ConfidenceLevel = "LOW"
	ConfidenceMed  ConfidenceLevel = "MED"
	ConfidenceHigh ConfidenceLevel = "HIGH"
)

// Valid reports whether the level is one of the known values.
func (c ConfidenceLevel) Valid() bool {
	switch c {
	case ConfidenceLow, ConfidenceMed, ConfidenceHigh:
		return true
	}
	return false
}

// SensitivityLevel describes how sensitive a holding is to the asserted
// structural shift.
type SensitivityLevel string

const (
	SensitivityLow  SensitivityLevel = "LOW"
	SensitivityMed  SensitivityLevel = "MED"
	SensitivityHigh SensitivityLevel = "HIGH"
)

// Valid reports whether the level is one of the known values.
func (s SensitivityLevel) Valid() bool {
	switch s {
	case SensitivityLow, SensitivityMed, SensitivityHigh:
		return true
	}
	return false
}

// HoldingConstraint describes how freely a position can be repositioned.
type HoldingConstraint string

const (
	ConstraintLocked     HoldingConstraint = "LOCKED"
	ConstraintSemiLocked HoldingConstraint = "SEMI_LOCKED"
	ConstraintFree       HoldingConstraint = "FREE"
)

// Valid reports whether the constraint is one of the known values.
func (c HoldingConstraint) Valid() bool {
	switch c {
	case ConstraintLocked, ConstraintSemiLocked, ConstraintFree:
		return true
	}
	return false
}

// HoldingPurpose captures why the capital is held at all.
type HoldingPurpose string

const (
	PurposeTax               HoldingPurpose = "TAX"
	PurposeSpend0To12M       HoldingPurpose = "SPEND_0_12M"
	PurposeSpend12To36M      HoldingPurpose = "SPEND_12_36M"
	PurposeLifestyleDrawdown HoldingPurpose = "LIFESTYLE_DRAWDOWN"
	PurposeLongTermGrowth    HoldingPurpose = "LONG_TERM_GROWTH"
)

// Valid reports whether the purpose is one of the known values.
func (p HoldingPurpose) Valid() bool {
	switch p {
	case PurposeTax, PurposeSpend0To12M, PurposeSpend12To36M, PurposeLifestyleDrawdown, PurposeLongTermGrowth:
		return true
	}
	return false
}

// BiasLabel is the qualitative band the portfolio bias score falls in.
type BiasLabel string

const (
	BiasStrongNeg BiasLabel = "STRONG_NEG"
	BiasNeg       BiasLabel = "NEG"
	BiasNeutral   BiasLabel = "NEUTRAL"
	BiasPos       BiasLabel = "POS"
	BiasStrongPos BiasLabel = "STRONG_POS"
)

// HoldingInput is one portfolio position supplied with an analyze request.
// Weight is a decimal fraction of the portfolio; nil means unspecified.
type HoldingInput struct {
	Name         string            `json:"name"`
	Ticker       string            `json:"ticker,omitempty"`
	Weight       *float64          `json:"weight,omitempty"`
	Sensitivity  SensitivityLevel  `json:"sensitivity"`
	Constraint   HoldingConstraint `json:"constraint"`
	Purpose      HoldingPurpose    `json:"purpose"`
	ExposureTags []string          `json:"exposure_tags"`
}

// BranchOverride replaces the default probability of one named branch.
type BranchOverride struct {
	Name        BranchName `json:"name"`
	Probability float64    `json:"probability"`
}

// AnalyzeRequest is the single entry point payload for the analysis pipeline.
type AnalyzeRequest struct {
	Statement           string           `json:"statement"`
	Probability         float64          `json:"probability"`
	HorizonMonths       int              `json:"horizon_months"`
	Holdings            []HoldingInput   `json:"holdings"`
	BranchOverrides     []BranchOverride `json:"branch_overrides,omitempty"`
	AllowWeightOverride bool             `json:"allow_weight_override,omitempty"`
	PortfolioScenarioID string           `json:"portfolio_scenario_id,omitempty"`
	UniverseVersionID   string           `json:"universe_version_id,omitempty"`
}

const (
	statementMinLen = 10
	statementMaxLen = 500
	holdingNameMax  = 120
	maxHoldings     = 100
	maxExposureTags = 12
)

// NormalizeHoldingWeights reinterprets percent-style weights in place.
// A weight above 1 and at most 100 was almost certainly entered as a
// percentage and is divided down to a decimal.
func NormalizeHoldingWeights(holdings []HoldingInput) {
	for i := range holdings {
		if holdings[i].Weight == nil {
			continue
		}
		w := *holdings[i].Weight
		if w > 1 && w <= 100 {
			scaled := w / 100
			holdings[i].Weight = &scaled
		}
	}
}

// Validate checks the request shape against the input contract. Violations
// here are surfaced immediately and never reach the reasoning call.
func (r *AnalyzeRequest) Validate() error {
	if n := len([]rune(r.Statement)); n < statementMinLen || n > statementMaxLen {
		return fmt.Errorf("statement must be between %d and %d characters, got %d", statementMinLen, statementMaxLen, n)
	}
	if r.Probability < 0 || r.Probability > 1 {
		return fmt.Errorf("probability must be between 0 and 1, got %v", r.Probability)
	}
	if r.HorizonMonths < 1 || r.HorizonMonths > 120 {
		return fmt.Errorf("horizon_months must be between 1 and 120, got %d", r.HorizonMonths)
	}
	if len(r.Holdings) == 0 && r.PortfolioScenarioID == "" {
		return fmt.Errorf("at least one holding is required")
	}
	if len(r.Holdings) > maxHoldings {
		return fmt.Errorf("at most %d holdings are supported, got %d", maxHoldings, len(r.Holdings))
	}
	return ValidateHoldings(r.Holdings)
}

// ValidateHoldings checks each holding and enforces name uniqueness under
// normalization.
func ValidateHoldings(holdings []HoldingInput) error {
	seen := make(map[string]string, len(holdings))
	for i, h := range holdings {
		if h.Name == "" || len([]rune(h.Name)) > holdingNameMax {
			return fmt.Errorf("holding %d: name is required and must be at most %d characters", i, holdingNameMax)
		}
		if !h.Sensitivity.Valid() {
			return fmt.Errorf("holding %q: invalid sensitivity %q", h.Name, h.Sensitivity)
		}
		if !h.Constraint.Valid() {
			return fmt.Errorf("holding %q: invalid constraint %q", h.Name, h.Constraint)
		}
		if !h.Purpose.Valid() {
			return fmt.Errorf("holding %q: invalid purpose %q", h.Name, h.Purpose)
		}
		if h.Weight != nil && (*h.Weight < 0 || *h.Weight > 1) {
			return fmt.Errorf("holding %q: weight must be a decimal between 0 and 1", h.Name)
		}
		if len(h.ExposureTags) > maxExposureTags {
			return fmt.Errorf("holding %q: at most %d exposure tags", h.Name, maxExposureTags)
		}

		key := textutil.NormalizeKey(h.Name)
		if prior, ok := seen[key]; ok {
			return fmt.Errorf("holding names must be unique: %q duplicates %q", h.Name, prior)
		}
		seen[key] = h.Name
	}
	return nil
}
