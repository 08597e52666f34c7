// Package llmprovider implements the text-generation capability against an
// OpenAI compatible chat completions endpoint.
package llmprovider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/janhq/drivethru-server/internal/config"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
)

const defaultMaxTokens = 300

// Client implements llm.Capability.
type Client struct {
	httpClient  *resty.Client
	model       string
	temperature float32
	log         zerolog.Logger
}

// NewClient creates a Resty-backed client.
func NewClient(cfg *config.Config, log zerolog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.LLMBaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.LLMTimeout).
		SetRetryCount(cfg.LLMRetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if cfg.LLMAPIKey != "" {
		httpClient.SetAuthToken(cfg.LLMAPIKey)
	}
	return &Client{
		httpClient:  httpClient,
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
		log:         log.With().Str("component", "llm-client").Logger(),
	}
}

// Generate sends one system and user message pair and returns the first
// choice's content.
func (c *Client) Generate(ctx context.Context, prompt llm.Prompt) (string, error) {
	started := time.Now()
	out, err := c.complete(ctx, prompt)
	metrics.RecordLLMCall(string(prompt.Stage), err, time.Since(started))
	if err != nil {
		c.log.Warn().Err(err).Str("stage", string(prompt.Stage)).Dur("elapsed", time.Since(started)).Msg("chat completion failed")
	}
	return out, err
}

func (c *Client) complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	req := buildRequest(c.model, c.temperature, prompt)

	var completion openai.ChatCompletionResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&completion).
		Post("/v1/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("llm api error: %d %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	if len(completion.Choices) == 0 {
		return "", llm.ErrEmptyOutput
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyOutput
	}
	return content, nil
}

func buildRequest(model string, temperature float32, prompt llm.Prompt) openai.ChatCompletionRequest {
	maxTokens := prompt.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	req := openai.ChatCompletionRequest{
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	}
	if prompt.JSON {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ensure interface compliance.
var _ llm.Capability = (*Client)(nil)
