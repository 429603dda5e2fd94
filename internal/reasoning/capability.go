// Package reasoning drives the external structured-reasoning call behind
// the analysis pipeline: prompt construction, provider clients, output
// sanitization, dedupe passes, invariant checks, and the single-retry
// orchestration around all of it.
package reasoning

import (
	"context"

	"github.com/secondsight/secondsight/internal/models"
)

// Capability abstracts the external reasoning call so the retry and
// validation logic can be exercised with a deterministic stand-in. The
// hint is empty on the first attempt and carries the corrective message on
// the retry.
type Capability interface {
	GenerateAnalysis(ctx context.Context, req *models.AnalyzeRequest, hint string) (*models.AnalysisOutput, error)

	// ModelName reports the underlying model for audit snapshots.
	ModelName() string
}

// Config holds provider configuration for the reasoning capability.
type Config struct {
	Provider    string // "openai" or "anthropic"
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     int // seconds
}

// DefaultConfig returns defaults tuned for factual structured output.
func DefaultConfig() Config {
	return Config{
		Provider:    "openai",
		Model:       "gpt-4o",
		Temperature: 0.3,
		MaxTokens:   4000,
		Timeout:     120,
	}
}

// PromptVersion tags audit snapshots with the prompt revision that
// produced them.
const PromptVersion = "v1"
