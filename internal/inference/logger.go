// Package inference records external model API calls to the database for
// cost and latency accounting.
package inference

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/secondsight/secondsight/internal/models"
)

// LogStore persists inference log rows.
type LogStore interface {
	CreateInferenceLog(ctx context.Context, log models.InferenceLog) error
}

// Logger writes inference call records through a LogStore.
type Logger struct {
	store  LogStore
	logger *slog.Logger
}

// NewLogger creates an inference logger.
func NewLogger(store LogStore, logger *slog.Logger) *Logger {
	return &Logger{store: store, logger: logger}
}

// Usage carries the token counts reported by a provider for one call.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// LogReasoningCall records one reasoning API call. The write happens on a
// background goroutine so a slow database never blocks the pipeline.
func (l *Logger) LogReasoningCall(ctx context.Context, provider, model, operation string, usage Usage, latency time.Duration, callErr error, metadata map[string]interface{}) {
	var metadataJSON string
	if metadata != nil {
		if jsonBytes, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(jsonBytes)
		}
	}

	latencyMs := int(latency.Milliseconds())
	inputTokens := usage.InputTokens
	outputTokens := usage.OutputTokens
	cost := estimateCost(provider, model, usage.InputTokens, usage.OutputTokens)

	record := models.InferenceLog{
		Provider:     provider,
		Model:        model,
		Operation:    operation,
		TokensUsed:   usage.TotalTokens,
		InputTokens:  &inputTokens,
		OutputTokens: &outputTokens,
		CostUSD:      &cost,
		LatencyMs:    &latencyMs,
		Status:       "success",
		Metadata:     metadataJSON,
	}
	if callErr != nil {
		record.Status = "error"
		errMsg := callErr.Error()
		record.ErrorMessage = &errMsg
	}

	go func() {
		bgCtx := context.Background()
		if err := l.store.CreateInferenceLog(bgCtx, record); err != nil {
			l.logger.Error("failed to log inference call", "error", err)
		}
	}()
}

// estimateCost approximates call cost in USD from published per-million
// token pricing. Estimates only, meant for trend dashboards.
func estimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	var inputPer1M, outputPer1M float64

	switch provider {
	case "openai":
		switch model {
		case "gpt-4o":
			inputPer1M, outputPer1M = 2.50, 10.00
		case "gpt-4o-mini":
			inputPer1M, outputPer1M = 0.15, 0.60
		case "gpt-4-turbo", "gpt-4-turbo-preview":
			inputPer1M, outputPer1M = 10.00, 30.00
		default:
			inputPer1M, outputPer1M = 5.00, 15.00
		}
	case "anthropic":
		switch model {
		case "claude-3-opus-20240229":
			inputPer1M, outputPer1M = 15.00, 75.00
		case "claude-3-haiku-20240307":
			inputPer1M, outputPer1M = 0.25, 1.25
		default:
			inputPer1M, outputPer1M = 3.00, 15.00
		}
	default:
		return 0
	}

	return (float64(inputTokens)/1_000_000)*inputPer1M + (float64(outputTokens)/1_000_000)*outputPer1M
}
