package models

import "time"

// Theme is one persisted analysis run of a structural-shift statement.
type Theme struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id,omitempty"`
	Statement           string    `json:"statement"`
	Probability         float64   `json:"probability"`
	HorizonMonths       int       `json:"horizon_months"`
	PortfolioScenarioID string    `json:"portfolio_scenario_id,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// RunSnapshot is the audit record for one analysis run. Failed runs still
// produce a snapshot with a neutral bias and the error message attached.
type RunSnapshot struct {
	ID                string    `json:"id"`
	ThemeID           string    `json:"theme_id"`
	ModelName         string    `json:"model_name"`
	PromptVersion     string    `json:"prompt_version"`
	RawOutputJSON     []byte    `json:"raw_output_json"`
	ComputedBiasScore float64   `json:"computed_bias_score"`
	BiasLabel         BiasLabel `json:"bias_label"`
	CreatedAt         time.Time `json:"created_at"`
}

// ThemeSummary is the list-view projection of a theme with its latest
// bias.
type ThemeSummary struct {
	ID            string    `json:"id"`
	Statement     string    `json:"statement"`
	Probability   float64   `json:"probability"`
	HorizonMonths int       `json:"horizon_months"`
	BiasScore     float64   `json:"bias_score"`
	BiasLabel     BiasLabel `json:"bias_label"`
	CreatedAt     time.Time `json:"created_at"`
}

// ThemeDetail is a theme with its latest snapshot and invalidation items.
type ThemeDetail struct {
	Theme             Theme              `json:"theme"`
	Snapshot          RunSnapshot        `json:"snapshot"`
	InvalidationItems []InvalidationItem `json:"invalidation_items"`
}

// InvalidationItem pairs an assumption with the indicator that would break
// it. Status and note are mutated by indicator observations.
type InvalidationItem struct {
	ID               string          `json:"id"`
	ThemeID          string          `json:"theme_id"`
	Assumption       string          `json:"assumption"`
	BreakpointSignal string          `json:"breakpoint_signal"`
	IndicatorName    string          `json:"indicator_name"`
	LatestStatus     IndicatorStatus `json:"latest_status"`
	LatestNote       string          `json:"latest_note,omitempty"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// PortfolioScenario is a named, reusable holdings set.
type PortfolioScenario struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id,omitempty"`
	Name      string         `json:"name"`
	Holdings  []HoldingInput `json:"holdings"`
	CreatedAt time.Time      `json:"created_at"`
}

// UniverseVersion is a named upload of instrument exposure rows.
type UniverseVersion struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id,omitempty"`
	Name      string        `json:"name"`
	Rows      []UniverseRow `json:"rows"`
	CreatedAt time.Time     `json:"created_at"`
}

// UniverseVersionSummary is the list-view projection of a universe
// version without its rows.
type UniverseVersionSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	RowCount  int       `json:"row_count"`
	CreatedAt time.Time `json:"created_at"`
}

// User is an account that owns themes, scenarios, and universe versions.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AnalysisResult is the success payload of one completed pipeline run.
type AnalysisResult struct {
	ThemeID               string                     `json:"theme_id"`
	Bias                  BiasResult                 `json:"bias"`
	Analysis              AnalysisOutput             `json:"analysis"`
	PortfolioValidation   PortfolioValidation        `json:"portfolio_validation"`
	Branches              []Branch                   `json:"branches"`
	NodeShocks            []NodeShock                `json:"node_shocks"`
	Recommendations       []ExpressionRecommendation `json:"recommendations"`
	IndicatorDefinitions  []IndicatorDefinition      `json:"indicator_definitions"`
	ExposureContributions []ExposureContribution     `json:"exposure_contributions"`
	DecisionSummary       DecisionSummary            `json:"decision_summary"`
}
