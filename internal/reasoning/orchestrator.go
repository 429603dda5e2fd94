package reasoning

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/secondsight/secondsight/internal/models"
)

// attemptState models the fixed retry budget explicitly: one clean
// attempt, one retry carrying a corrective hint, then terminal failure.
type attemptState int

const (
	firstAttempt attemptState = iota
	retryWithHint
)

// Orchestrator drives the reasoning capability through the
// validate-and-retry loop. The domain assumes a single corrective nudge
// is enough for a language-model output, so the budget is exactly two
// attempts with no backoff.
type Orchestrator struct {
	capability Capability
	logger     *slog.Logger
	counter    CallCounter
}

// CallCounter records capability calls for metrics. Attempt is "first" or
// "retry".
type CallCounter interface {
	CountReasoningCall(attempt string)
}

// NewOrchestrator wires an orchestrator around a capability.
func NewOrchestrator(capability Capability, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{capability: capability, logger: logger}
}

// SetCallCounter attaches an optional metrics recorder.
func (o *Orchestrator) SetCallCounter(counter CallCounter) {
	o.counter = counter
}

// ModelName reports the capability's model for audit snapshots.
func (o *Orchestrator) ModelName() string {
	return o.capability.ModelName()
}

// buildRetryHint restates the violation from the failed attempt together
// with the rules a corrected response must satisfy.
func buildRetryHint(cause error) string {
	return fmt.Sprintf("Your previous response failed validation with this error: %s. "+
		"Return corrected JSON with at least 2 first-order and 2 second-order effects, "+
		"each with valid confidence and distinct entries, and exactly one holding mapping per unique holding. "+
		"If SECOND/THIRD/FOURTH effects are present, include at least one asset recommendation tied to those layers.", cause)
}

// Run invokes the capability and applies, in order: field sanitization,
// per-layer effect dedupe, holding-mapping dedupe, asset-recommendation
// dedupe, then the output invariant checks. A call error or invariant
// violation moves the state machine to the retry attempt with a
// corrective hint; a second failure propagates to the caller.
func (o *Orchestrator) Run(ctx context.Context, req *models.AnalyzeRequest) (*models.AnalysisOutput, error) {
	var lastErr error
	hint := ""

	for state := firstAttempt; state <= retryWithHint; state++ {
		if o.counter != nil {
			if state == firstAttempt {
				o.counter.CountReasoningCall("first")
			} else {
				o.counter.CountReasoningCall("retry")
			}
		}

		output, err := o.attempt(ctx, req, hint)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if state == firstAttempt {
			o.logger.Warn("reasoning attempt failed, retrying with corrective hint", "error", err)
			hint = buildRetryHint(err)
		}
	}

	return nil, fmt.Errorf("reasoning failed after retry: %w", lastErr)
}

func (o *Orchestrator) attempt(ctx context.Context, req *models.AnalyzeRequest, hint string) (*models.AnalysisOutput, error) {
	output, err := o.capability.GenerateAnalysis(ctx, req, hint)
	if err != nil {
		return nil, err
	}

	SanitizeOutput(output)
	DedupeEffects(output)
	DedupeHoldingMappings(output)
	DedupeAssetRecommendations(output)

	if err := EnforceOutputChecks(output, req.Holdings); err != nil {
		return nil, err
	}
	return output, nil
}
