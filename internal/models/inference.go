package models

import "time"

// InferenceLog records one external model API call for cost and latency
// accounting. Rows are written asynchronously and never block the
// analysis pipeline.
type InferenceLog struct {
	ID           string
	Provider     string
	Model        string
	Operation    string
	TokensUsed   int
	InputTokens  *int
	OutputTokens *int
	CostUSD      *float64
	LatencyMs    *int
	Status       string // "success" or "error"
	ErrorMessage *string
	Metadata     string // JSON object with call context
	CreatedAt    time.Time
}

// InferenceLogStats aggregates call volume, token spend, and latency.
type InferenceLogStats struct {
	TotalCalls      int     `json:"total_calls"`
	TotalTokens     int64   `json:"total_tokens"`
	TotalCostUSD    float64 `json:"total_cost_usd"`
	SuccessfulCalls int     `json:"successful_calls"`
	FailedCalls     int     `json:"failed_calls"`
	AvgLatencyMs    float64 `json:"avg_latency_ms"`
}
