package reasoning

import (
	"fmt"
	"strings"

	"github.com/secondsight/secondsight/internal/models"
	"github.com/secondsight/secondsight/internal/textutil"
)

// SanitizeOutput collapses whitespace in every free-text field and
// hard-truncates each to its declared maximum length, in place.
func SanitizeOutput(output *models.AnalysisOutput) {
	sanitizeEffects := func(effects []models.CausalEffect) {
		for i := range effects {
			effects[i].Description = textutil.SanitizeField(effects[i].Description, models.MaxEffectDescriptionLen)
		}
	}
	sanitizeEffects(output.EffectsByLayer.First)
	sanitizeEffects(output.EffectsByLayer.Second)
	sanitizeEffects(output.EffectsByLayer.Third)
	sanitizeEffects(output.EffectsByLayer.Fourth)

	for i := range output.Assumptions {
		output.Assumptions[i].Assumption = textutil.SanitizeField(output.Assumptions[i].Assumption, models.MaxAssumptionLen)
		output.Assumptions[i].BreakpointSignal = textutil.SanitizeField(output.Assumptions[i].BreakpointSignal, models.MaxBreakpointSignalLen)
	}
	for i := range output.LeadingIndicators {
		output.LeadingIndicators[i].Name = textutil.SanitizeField(output.LeadingIndicators[i].Name, models.MaxIndicatorNameLen)
		output.LeadingIndicators[i].Rationale = textutil.SanitizeField(output.LeadingIndicators[i].Rationale, models.MaxIndicatorRationale)
	}
	for i := range output.HoldingMappings {
		output.HoldingMappings[i].HoldingName = textutil.SanitizeField(output.HoldingMappings[i].HoldingName, models.MaxHoldingNameLen)
		output.HoldingMappings[i].ExposureType = textutil.SanitizeField(output.HoldingMappings[i].ExposureType, models.MaxExposureTypeLen)
		output.HoldingMappings[i].Mechanism = textutil.SanitizeField(output.HoldingMappings[i].Mechanism, models.MaxMechanismLen)
	}
	for i := range output.AssetRecommendations {
		rec := &output.AssetRecommendations[i]
		rec.AssetName = textutil.SanitizeField(rec.AssetName, models.MaxAssetNameLen)
		rec.Category = textutil.SanitizeField(rec.Category, models.MaxAssetCategoryLen)
		rec.Action = textutil.SanitizeField(rec.Action, models.MaxAssetActionLen)
		rec.Rationale = textutil.SanitizeField(rec.Rationale, models.MaxAssetRationaleLen)
		rec.Mechanism = textutil.SanitizeField(rec.Mechanism, models.MaxMechanismLen)
		rec.TimeHorizon = textutil.SanitizeField(rec.TimeHorizon, models.MaxAssetHorizonLen)
	}
}

// DedupeEffects drops effects within each layer whose normalized
// description repeats an earlier entry, keeping first occurrences.
func DedupeEffects(output *models.AnalysisOutput) {
	dedupeLayer := func(effects []models.CausalEffect) []models.CausalEffect {
		seen := make(map[string]struct{}, len(effects))
		kept := effects[:0]
		for _, effect := range effects {
			key := textutil.NormalizeKey(effect.Description)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, effect)
		}
		return kept
	}
	output.EffectsByLayer.First = dedupeLayer(output.EffectsByLayer.First)
	output.EffectsByLayer.Second = dedupeLayer(output.EffectsByLayer.Second)
	output.EffectsByLayer.Third = dedupeLayer(output.EffectsByLayer.Third)
	output.EffectsByLayer.Fourth = dedupeLayer(output.EffectsByLayer.Fourth)
}

// DedupeHoldingMappings keeps the first mapping per normalized holding
// name.
func DedupeHoldingMappings(output *models.AnalysisOutput) {
	seen := make(map[string]struct{}, len(output.HoldingMappings))
	kept := output.HoldingMappings[:0]
	for _, mapping := range output.HoldingMappings {
		key := textutil.NormalizeKey(mapping.HoldingName)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, mapping)
	}
	output.HoldingMappings = kept
}

// DedupeAssetRecommendations keeps the first recommendation per
// (normalized asset name, source layer, action) triple.
func DedupeAssetRecommendations(output *models.AnalysisOutput) {
	seen := make(map[string]struct{}, len(output.AssetRecommendations))
	kept := output.AssetRecommendations[:0]
	for _, rec := range output.AssetRecommendations {
		key := strings.Join([]string{
			textutil.NormalizeKey(rec.AssetName),
			string(rec.SourceLayer),
			textutil.NormalizeKey(rec.Action),
		}, "|")
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, rec)
	}
	output.AssetRecommendations = kept
}

// EnforceOutputChecks validates the structural invariants of a sanitized,
// deduped output against the input holdings: minimum effect counts,
// recommendation coupling to indirect layers, and exactly one mapping per
// unique holding. Error messages carry the observed counts so the retry
// hint can restate them.
func EnforceOutputChecks(output *models.AnalysisOutput, holdings []models.HoldingInput) error {
	if n := len(output.EffectsByLayer.First); n < 2 {
		return fmt.Errorf("output must include at least 2 first-order effects, got %d", n)
	}
	if n := len(output.EffectsByLayer.Second); n < 2 {
		return fmt.Errorf("output must include at least 2 second-order effects, got %d", n)
	}

	indirectEffects := len(output.EffectsByLayer.Second) +
		len(output.EffectsByLayer.Third) +
		len(output.EffectsByLayer.Fourth)
	if indirectEffects > 0 && len(output.AssetRecommendations) == 0 {
		return fmt.Errorf("output has %d second/third/fourth-order effects but no asset recommendations", indirectEffects)
	}

	mappingCounts := make(map[string]int, len(output.HoldingMappings))
	for _, mapping := range output.HoldingMappings {
		mappingCounts[textutil.NormalizeKey(mapping.HoldingName)]++
	}

	checked := make(map[string]struct{}, len(holdings))
	for _, holding := range holdings {
		key := textutil.NormalizeKey(holding.Name)
		if _, done := checked[key]; done {
			continue
		}
		checked[key] = struct{}{}
		if n := mappingCounts[key]; n != 1 {
			return fmt.Errorf("expected exactly one mapping for holding %s, got %d", holding.Name, n)
		}
	}

	return nil
}
