// Package llm holds the OpenAI client plumbing shared by the extraction and
// review providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/opensource-finance/claimguard/internal/domain"
)

// DefaultModel is used when a provider config names no model.
const DefaultModel = openai.GPT4oMini

// Client wraps a go-openai client with the provider's timeout and rate limit.
type Client struct {
	api     *openai.Client
	config  domain.ProviderConfig
	limiter *rate.Limiter
}

// NewClient creates a client for cfg. An API key is required.
func NewClient(cfg domain.ProviderConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	c := &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return c, nil
}

// Model returns the configured model or DefaultModel.
func (c *Client) Model() string {
	if c.config.Model != "" {
		return c.config.Model
	}
	return DefaultModel
}

// Complete sends one chat completion and returns the first choice's content.
// The request's Model and MaxTokens are filled from config when unset.
func (c *Client) Complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	if req.Model == "" {
		req.Model = c.Model()
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = c.config.MaxTokens
	}

	timeout := time.Duration(c.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// StripCodeFence returns the body of the first markdown code block in text,
// preferring a ```json block. Text without a fence is returned trimmed.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)

	for _, open := range []string{"```json", "```"} {
		start := strings.Index(text, open)
		if start < 0 {
			continue
		}
		body := text[start+len(open):]
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		return strings.TrimSpace(body)
	}
	return text
}
