package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/secondsight/secondsight/internal/inference"
	"github.com/secondsight/secondsight/internal/models"
)

// AnthropicClient implements Capability on the Anthropic messages API.
type AnthropicClient struct {
	client          anthropic.Client
	config          Config
	logger          *slog.Logger
	inferenceLogger *inference.Logger
}

// NewAnthropicClient constructs an Anthropic-backed reasoning capability.
func NewAnthropicClient(cfg Config, logger *slog.Logger, inferenceLogger *inference.Logger) *AnthropicClient {
	return &AnthropicClient{
		client:          anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		config:          cfg,
		logger:          logger,
		inferenceLogger: inferenceLogger,
	}
}

// ModelName reports the configured model.
func (c *AnthropicClient) ModelName() string {
	return c.config.Model
}

// GenerateAnalysis runs one reasoning call and parses the structured
// output. The messages API has no JSON mode, so the parser tolerates
// fenced output.
func (c *AnthropicClient) GenerateAnalysis(ctx context.Context, req *models.AnalyzeRequest, hint string) (*models.AnalysisOutput, error) {
	prompt := BuildAnalysisPrompt(req, hint)

	apiCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	message, err := c.client.Messages.New(apiCtx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.config.Model),
		MaxTokens:   int64(c.config.MaxTokens),
		Temperature: anthropic.Float(float64(c.config.Temperature)),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	latency := time.Since(start)

	if c.inferenceLogger != nil {
		usage := inference.Usage{}
		if err == nil {
			usage.InputTokens = int(message.Usage.InputTokens)
			usage.OutputTokens = int(message.Usage.OutputTokens)
			usage.TotalTokens = usage.InputTokens + usage.OutputTokens
		}
		c.inferenceLogger.LogReasoningCall(ctx, "anthropic", c.config.Model, "theme_analysis", usage, latency, err, map[string]interface{}{
			"retry": hint != "",
		})
	}

	if err != nil {
		return nil, fmt.Errorf("anthropic api call failed: %w", err)
	}
	if len(message.Content) == 0 {
		return nil, fmt.Errorf("no response from anthropic model %s", c.config.Model)
	}

	content := message.Content[0].Text
	if content == "" {
		return nil, fmt.Errorf("empty response from anthropic model %s", c.config.Model)
	}

	c.logger.Debug("anthropic reasoning response received",
		"model", c.config.Model,
		"latency_ms", latency.Milliseconds(),
		"content_length", len(content))

	return ParseAnalysisOutput(content)
}
