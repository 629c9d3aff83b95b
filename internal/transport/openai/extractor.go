// Package openai extracts structured search criteria from free chat
// text through an OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/nivaas-cloud/propdex/internal/domain"
	"github.com/nivaas-cloud/propdex/internal/domain/criteria"
)

const systemPrompt = `You extract real-estate search criteria from a chat message.
Respond with a single JSON object using only these keys, omitting any the
message does not mention:
  bedrooms (array of integers, BHK counts),
  min_price, max_price, budget_exact (numbers, in lakhs; 1 crore = 100 lakhs),
  city, locality, zone, developer (strings),
  possession_year, possession_quarter (integers),
  area_sqft_min, area_sqft_max (numbers),
  statuses, property_types (arrays of strings).
Never invent values. "under X" sets max_price only; "around X" sets budget_exact.`

// Extractor is a criteria extractor backed by a chat completion model.
type Extractor struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible criteria extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

// Extract sends the chat text through the model in JSON mode and decodes
// the response into criteria. All failures wrap ErrExtractionUnavailable
// so the caller can fall back to the regex extractor.
func (e *Extractor) Extract(ctx context.Context, text string) (criteria.Criteria, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return criteria.Criteria{}, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return criteria.Criteria{}, fmt.Errorf("empty completion response: %w", domain.ErrExtractionUnavailable)
	}

	var c criteria.Criteria
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &c); err != nil {
		e.logger.Warn("extraction produced invalid JSON",
			zap.String("model", e.model), zap.Error(err))
		return criteria.Criteria{}, fmt.Errorf("decode extraction: %w", domain.ErrExtractionUnavailable)
	}
	return c, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Extractor) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrExtractionUnavailable so transport
// maps them to the regex fallback rather than a request failure.
func parseAPIError(err error) error {
	wrap := domain.ErrExtractionUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("extraction API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("extraction request failed: %w", wrap)
}
