package models

// CausalLayer names one of the four ordered effect tiers. Order encodes
// decreasing directness and increasing lag.
type CausalLayer string

const (
	LayerFirst  CausalLayer = "FIRST"
	LayerSecond CausalLayer = "SECOND"
	LayerThird  CausalLayer = "THIRD"
	LayerFourth CausalLayer = "FOURTH"
)

// CausalEffect is one node in the causal chain produced by the reasoning
// call.
type CausalEffect struct {
	Description     string          `json:"description"`
	ImpactDirection ImpactDirection `json:"impact_direction"`
	Confidence      ConfidenceLevel `json:"confidence"`
}

// EffectsByLayer groups causal effects into the four ordered tiers.
type EffectsByLayer struct {
	First  []CausalEffect `json:"first"`
	Second []CausalEffect `json:"second"`
	Third  []CausalEffect `json:"third"`
	Fourth []CausalEffect `json:"fourth"`
}

// LayerEffects pairs a layer name with its effect slice.
type LayerEffects struct {
	Layer   CausalLayer
	Effects []CausalEffect
}

// Ordered returns the layers first through fourth.
func (e EffectsByLayer) Ordered() []LayerEffects {
	return []LayerEffects{
		{Layer: LayerFirst, Effects: e.First},
		{Layer: LayerSecond, Effects: e.Second},
		{Layer: LayerThird, Effects: e.Third},
		{Layer: LayerFourth, Effects: e.Fourth},
	}
}

// Assumption is a load-bearing belief behind the causal chain, paired with
// the signal that would break it.
type Assumption struct {
	Assumption       string `json:"assumption"`
	BreakpointSignal string `json:"breakpoint_signal"`
}

// LeadingIndicator is a monitorable series the reasoning call suggests
// watching.
type LeadingIndicator struct {
	Name      string `json:"name"`
	Rationale string `json:"rationale"`
}

// HoldingMapping ties one input holding to its exposure under the thesis.
// Exactly one mapping exists per unique holding name; the orchestrator
// enforces this after the call returns.
type HoldingMapping struct {
	HoldingName  string          `json:"holding_name"`
	ExposureType string          `json:"exposure_type"`
	NetImpact    ImpactDirection `json:"net_impact"`
	Mechanism    string          `json:"mechanism"`
	Confidence   ConfidenceLevel `json:"confidence"`
}

// RecommendationLayer restricts asset recommendations to the indirect
// tiers of the chain.
type RecommendationLayer string

const (
	RecommendationSecond RecommendationLayer = "SECOND"
	RecommendationThird  RecommendationLayer = "THIRD"
	RecommendationFourth RecommendationLayer = "FOURTH"
)

// AssetRecommendation is a model-suggested instrument tied to a specific
// indirect layer of the causal chain.
type AssetRecommendation struct {
	AssetName   string              `json:"asset_name"`
	Category    string              `json:"category"`
	SourceLayer RecommendationLayer `json:"source_layer"`
	Direction   ImpactDirection     `json:"direction"`
	Action      string              `json:"action"`
	Rationale   string              `json:"rationale"`
	Confidence  ConfidenceLevel     `json:"confidence"`
	Mechanism   string              `json:"mechanism"`
	TimeHorizon string              `json:"time_horizon,omitempty"`
}

// AnalysisOutput is the full typed contract for the reasoning call. The
// orchestrator sanitizes, dedupes, and invariant-checks an instance before
// anything downstream sees it.
type AnalysisOutput struct {
	EffectsByLayer       EffectsByLayer        `json:"effects_by_layer"`
	Assumptions          []Assumption          `json:"assumptions"`
	LeadingIndicators    []LeadingIndicator    `json:"leading_indicators"`
	HoldingMappings      []HoldingMapping      `json:"holding_mappings"`
	AssetRecommendations []AssetRecommendation `json:"asset_recommendations"`
}

// Field length budgets for sanitizing model output. Free-text fields are
// whitespace-collapsed and hard-truncated to these maxima.
const (
	MaxEffectDescriptionLen = 500
	MaxAssumptionLen        = 300
	MaxBreakpointSignalLen  = 300
	MaxIndicatorNameLen     = 120
	MaxIndicatorRationale   = 300
	MaxHoldingNameLen       = 120
	MaxExposureTypeLen      = 220
	MaxMechanismLen         = 900
	MaxAssetNameLen         = 120
	MaxAssetCategoryLen     = 120
	MaxAssetRationaleLen    = 500
	MaxAssetActionLen       = 60
	MaxAssetHorizonLen      = 60
)
