package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/secondsight/secondsight/internal/inference"
	"github.com/secondsight/secondsight/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Capability on the OpenAI chat completions API
// with JSON-object response mode.
type OpenAIClient struct {
	client          *openai.Client
	config          Config
	logger          *slog.Logger
	inferenceLogger *inference.Logger
}

// NewOpenAIClient constructs an OpenAI-backed reasoning capability.
func NewOpenAIClient(cfg Config, logger *slog.Logger, inferenceLogger *inference.Logger) *OpenAIClient {
	return &OpenAIClient{
		client:          openai.NewClient(cfg.APIKey),
		config:          cfg,
		logger:          logger,
		inferenceLogger: inferenceLogger,
	}
}

// ModelName reports the configured model.
func (c *OpenAIClient) ModelName() string {
	return c.config.Model
}

// GenerateAnalysis runs one reasoning call and parses the structured
// output. Retry policy lives in the orchestrator, not here.
func (c *OpenAIClient) GenerateAnalysis(ctx context.Context, req *models.AnalyzeRequest, hint string) (*models.AnalysisOutput, error) {
	prompt := BuildAnalysisPrompt(req, hint)

	apiCtx, cancel := context.WithTimeout(ctx, time.Duration(c.config.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(apiCtx, openai.ChatCompletionRequest{
		Model:               c.config.Model,
		Temperature:         c.config.Temperature,
		MaxCompletionTokens: c.config.MaxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	latency := time.Since(start)

	if c.inferenceLogger != nil {
		usage := inference.Usage{}
		if err == nil {
			usage.InputTokens = resp.Usage.PromptTokens
			usage.OutputTokens = resp.Usage.CompletionTokens
			usage.TotalTokens = resp.Usage.TotalTokens
		}
		c.inferenceLogger.LogReasoningCall(ctx, "openai", c.config.Model, "theme_analysis", usage, latency, err, map[string]interface{}{
			"retry": hint != "",
		})
	}

	if err != nil {
		return nil, fmt.Errorf("openai api call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned from model %s", c.config.Model)
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return nil, fmt.Errorf("empty response from model %s (finish_reason: %s)", c.config.Model, resp.Choices[0].FinishReason)
	}

	c.logger.Debug("openai reasoning response received",
		"model", c.config.Model,
		"latency_ms", latency.Milliseconds(),
		"content_length", len(content))

	return ParseAnalysisOutput(content)
}
