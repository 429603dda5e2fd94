package models

// BranchName identifies one of the three fixed scenario paths.
type BranchName string

const (
	BranchBase BranchName = "BASE"
	BranchBull BranchName = "BULL"
	BranchBear BranchName = "BEAR"
)

// Valid reports whether the name is one of the fixed branches.
func (n BranchName) Valid() bool {
	switch n {
	case BranchBase, BranchBull, BranchBear:
		return true
	}
	return false
}

// Branch is one scenario path with its normalized probability weight.
type Branch struct {
	Name        BranchName `json:"name"`
	Probability float64    `json:"probability"`
	Rationale   string     `json:"rationale"`
}

// ShockDirection is the sign of a node shock.
type ShockDirection string

const (
	ShockUp   ShockDirection = "UP"
	ShockDown ShockDirection = "DOWN"
	ShockFlat ShockDirection = "FLAT"
)

// ShockStrength bands a shock by how direct its source layer is.
type ShockStrength string

const (
	StrengthWeak   ShockStrength = "WEAK"
	StrengthMed    ShockStrength = "MED"
	StrengthStrong ShockStrength = "STRONG"
)

// LagBand buckets the expected delay before a shock materializes.
type LagBand string

const (
	LagImmediate LagBand = "IMMEDIATE"
	LagM3To6     LagBand = "M3_6"
	LagM6To18    LagBand = "M6_18"
	LagM18Plus   LagBand = "M18_PLUS"
)

// NodeShock quantifies one causal effect under one branch. Derived
// deterministically at analysis time and never mutated afterwards.
type NodeShock struct {
	BranchName   BranchName      `json:"branch_name"`
	NodeKey      string          `json:"node_key"`
	NodeLabel    string          `json:"node_label"`
	Direction    ShockDirection  `json:"direction"`
	MagnitudePct float64         `json:"magnitude_pct"`
	Strength     ShockStrength   `json:"strength"`
	Lag          LagBand         `json:"lag"`
	Confidence   ConfidenceLevel `json:"confidence"`
	EvidenceNote string          `json:"evidence_note"`
}

// SizingBand buckets a recommendation by score magnitude.
type SizingBand string

const (
	SizingSmall  SizingBand = "SMALL"
	SizingMedium SizingBand = "MEDIUM"
	SizingLarge  SizingBand = "LARGE"
)

// RecommendationDirection is the long/short side of an expression
// recommendation.
type RecommendationDirection string

const (
	DirectionPos RecommendationDirection = "POS"
	DirectionNeg RecommendationDirection = "NEG"
)

// ExpressionRecommendation is a sized, capped instrument suggestion scored
// against branch-weighted node shocks. Derived output, never user-edited.
type ExpressionRecommendation struct {
	Symbol              string                  `json:"symbol"`
	Name                string                  `json:"name"`
	AssetType           AssetType               `json:"asset_type"`
	Direction           RecommendationDirection `json:"direction"`
	Action              string                  `json:"action"`
	SizingBand          SizingBand              `json:"sizing_band"`
	MaxPositionPct      float64                 `json:"max_position_pct"`
	Score               float64                 `json:"score"`
	Mechanism           string                  `json:"mechanism"`
	CatalystWindow      string                  `json:"catalyst_window"`
	PricedInNote        string                  `json:"priced_in_note"`
	RiskNote            string                  `json:"risk_note"`
	InvalidationTrigger string                  `json:"invalidation_trigger"`
	PortfolioRole       string                  `json:"portfolio_role"`
	Actionable          bool                    `json:"actionable"`
	AlreadyExpressed    bool                    `json:"already_expressed"`
}

// AssetType limits the universe to listed equities and ETFs.
type AssetType string

const (
	AssetEquity AssetType = "EQUITY"
	AssetETF    AssetType = "ETF"
)

// UniverseRow is one instrument in an uploaded universe version, with its
// exposure vector keyed by exp_* factor names.
type UniverseRow struct {
	Symbol                string             `json:"symbol"`
	CompanyName           string             `json:"company_name"`
	AssetType             AssetType          `json:"asset_type"`
	Region                string             `json:"region,omitempty"`
	Currency              string             `json:"currency,omitempty"`
	LiquidityClass        string             `json:"liquidity_class"`
	MaxPositionDefaultPct float64            `json:"max_position_default_pct"`
	Tags                  []string           `json:"tags"`
	ExposureVector        map[string]float64 `json:"exposure_vector"`
}

// SupportsDirection tells whether higher or lower observed values support
// the thesis.
type SupportsDirection string

const (
	HigherSupports SupportsDirection = "HIGHER_SUPPORTS"
	LowerSupports  SupportsDirection = "LOWER_SUPPORTS"
)

// IndicatorStatus is the traffic-light classification of an observation.
type IndicatorStatus string

const (
	StatusGreen   IndicatorStatus = "GREEN"
	StatusYellow  IndicatorStatus = "YELLOW"
	StatusRed     IndicatorStatus = "RED"
	StatusUnknown IndicatorStatus = "UNKNOWN"
)

// IndicatorDefinition holds the monitoring thresholds for one leading
// indicator.
type IndicatorDefinition struct {
	IndicatorName     string            `json:"indicator_name"`
	SupportsDirection SupportsDirection `json:"supports_direction"`
	GreenThreshold    float64           `json:"green_threshold"`
	YellowThreshold   float64           `json:"yellow_threshold"`
	RedThreshold      float64           `json:"red_threshold"`
	ExpectedWindow    string            `json:"expected_window"`
}

// DecisionSummary compresses branch impacts, recommendations, and
// indicators into a short decision brief.
type DecisionSummary struct {
	PortfolioImpactP10 float64  `json:"portfolio_impact_p10"`
	PortfolioImpactP50 float64  `json:"portfolio_impact_p50"`
	PortfolioImpactP90 float64  `json:"portfolio_impact_p90"`
	TopActions         []string `json:"top_actions"`
	TopMonitors        []string `json:"top_monitors"`
	ChangeMyMind       []string `json:"change_my_mind"`
}

// BranchImpact is one branch's contribution to the portfolio bias.
type BranchImpact struct {
	BranchName BranchName `json:"branch_name"`
	Score      float64    `json:"score"`
}

// PortfolioValidation is the outcome of the portfolio reality check.
// Errors block the pipeline; warnings travel with the result.
type PortfolioValidation struct {
	WeightSum            float64  `json:"weight_sum"`
	Warnings             []string `json:"warnings"`
	Errors               []string `json:"errors"`
	ActionableWeight     float64  `json:"actionable_weight"`
	SuspiciousWeightRows []string `json:"suspicious_weight_rows"`
}

// HoldingContribution is one holding's share of the portfolio bias.
type HoldingContribution struct {
	HoldingName string  `json:"holding_name"`
	Score       float64 `json:"score"`
	Weight      float64 `json:"weight"`
}

// ExposureContribution is a holding contribution annotated with its side
// for display, sorted most negative first in the result payload.
type ExposureContribution struct {
	HoldingContribution
	Direction string `json:"direction"` // UPSIDE or DOWNSIDE
}

// BiasResult bundles the portfolio bias scalar with its label and the
// per-holding contributions behind it.
type BiasResult struct {
	Contributions []HoldingContribution `json:"contributions"`
	PortfolioBias float64               `json:"portfolio_bias"`
	BiasLabel     BiasLabel             `json:"bias_label"`
}
