// Package llm implements the AI annotator on top of the OpenAI chat API.
package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

const DefaultModel = "gpt-4o-mini"

// Client wraps the OpenAI API with a requests-per-minute limiter so batch
// classification cannot outrun the provider quota.
type Client struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	maxRetries  int
	limiter     *rate.Limiter
}

type ClientConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	// RPM is the provider requests-per-minute budget. Zero disables limiting.
	RPM int
	// MaxRetries bounds retries of rate-limited or 5xx completions.
	MaxRetries int
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return NewClientWithConfig(ClientConfig{APIKey: apiKey})
}

func NewClientWithConfig(cfg ClientConfig) *Client {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.2
	}

	openaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.HTTPClient != nil {
		openaiCfg.HTTPClient = cfg.HTTPClient
	}

	var limiter *rate.Limiter
	if cfg.RPM > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RPM)/60.0), cfg.RPM/6+1)
	}

	return &Client{
		client:      openai.NewClientWithConfig(openaiCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		maxRetries:  cfg.MaxRetries,
		limiter:     limiter,
	}
}

// wait blocks until the rate limiter admits one request or ctx expires.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// retryable reports whether a completion error is worth another attempt.
func retryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	return false
}

// CompleteJSON runs a system+user chat completion in JSON mode, retrying
// rate-limited and server-side failures up to MaxRetries times.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		content, err := c.completeOnce(ctx, systemPrompt, userPrompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return "", lastErr
}

func (c *Client) completeOnce(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userPrompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}

	return resp.Choices[0].Message.Content, nil
}
