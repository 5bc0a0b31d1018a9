// Copyright 2025 ModelGate
// SPDX-License-Identifier: Apache-2.0

// Package llmproxy provides a client for the upstream LLM routing proxy.
// The proxy exposes an OpenAI-compatible chat completion API plus key
// management endpoints; the gateway treats it as a black box and routes all
// model traffic through it.
package llmproxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the default HTTP timeout for proxy calls
	DefaultTimeout = 60 * time.Second

	// DefaultMaxTokens is the default completion budget
	DefaultMaxTokens = 2048

	// DefaultTemperature is the default sampling temperature
	DefaultTemperature = 0.7
)

// HTTPClient is an interface for HTTP client operations (enables testing)
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the routing proxy. Safe for concurrent use.
type Client struct {
	baseURL   string
	masterKey string
	client    HTTPClient
}

// Config contains configuration for the proxy client
type Config struct {
	BaseURL   string        // Required: proxy base URL, e.g. https://ai.internal
	MasterKey string        // Required: admin credential for the proxy
	Timeout   time.Duration // Optional: HTTP timeout (default: 60s)
}

// Message is a single chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatOptions carries optional per-call parameters
type ChatOptions struct {
	APIKey      string  // Call with a user-scoped key instead of the master key
	MaxTokens   int     // 0 means DefaultMaxTokens
	Temperature float64 // Negative means DefaultTemperature
}

// Usage contains token usage reported by the proxy
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResult is the outcome of a successful completion call
type ChatResult struct {
	ID      string
	Model   string
	Content string
	Usage   Usage
	Latency time.Duration
}

// NewClient creates a new proxy client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("proxy base URL is required")
	}
	if cfg.MasterKey == "" {
		return nil, fmt.Errorf("proxy master key is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		masterKey: cfg.MasterKey,
		client:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// ChatCompletion issues a non-streaming chat completion through the proxy.
// Any non-2xx status is returned as an *APIError.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message, opts *ChatOptions) (*ChatResult, error) {
	start := time.Now()

	if model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("at least one message is required")
	}

	maxTokens := DefaultMaxTokens
	temperature := DefaultTemperature
	credential := c.masterKey
	if opts != nil {
		if opts.MaxTokens > 0 {
			maxTokens = opts.MaxTokens
		}
		if opts.Temperature >= 0 {
			temperature = opts.Temperature
		}
		if opts.APIKey != "" {
			credential = opts.APIKey
		}
	}

	apiReq := chatRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+credential)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("proxy request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var apiResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	content := ""
	if len(apiResp.Choices) > 0 {
		content = apiResp.Choices[0].Message.Content
	}

	return &ChatResult{
		ID:      apiResp.ID,
		Model:   model,
		Content: content,
		Usage:   apiResp.Usage,
		Latency: time.Since(start),
	}, nil
}

// KeyRequest describes a key to generate on the proxy
type KeyRequest struct {
	UserID   string   `json:"user_id"`
	KeyAlias string   `json:"key_alias"`
	Duration string   `json:"duration,omitempty"`
	Models   []string `json:"models,omitempty"`
	RPMLimit int      `json:"rpm_limit,omitempty"`
}

// GeneratedKey is the proxy's response to a key generation request
type GeneratedKey struct {
	Key     string `json:"key"`
	Token   string `json:"token"`
	KeyName string `json:"key_name"`
}

// GenerateKey asks the proxy to mint a user-scoped API key
func (c *Client) GenerateKey(ctx context.Context, req KeyRequest) (*GeneratedKey, error) {
	var result GeneratedKey
	if err := c.post(ctx, "/key/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteKey revokes a key on the proxy
func (c *Client) DeleteKey(ctx context.Context, key string) error {
	body := map[string][]string{"keys": {key}}
	return c.post(ctx, "/key/delete", body, nil)
}

// post issues an authenticated JSON POST against a proxy management endpoint
func (c *Client) post(ctx context.Context, endpoint string, body, out interface{}) error {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.masterKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("proxy request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseAPIError parses an error response body
func parseAPIError(statusCode int, body []byte) error {
	var errResp struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return &APIError{StatusCode: statusCode, Message: string(body)}
	}

	return &APIError{
		StatusCode: statusCode,
		Type:       errResp.Error.Type,
		Message:    errResp.Error.Message,
	}
}

// APIError represents a non-2xx proxy response
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("proxy API error (status %d): %s", e.StatusCode, e.Message)
}

// IsRateLimitError returns true if the proxy rejected the call for rate limiting
func (e *APIError) IsRateLimitError() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsAuthError returns true if the credential was rejected
func (e *APIError) IsAuthError() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Internal API types

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}
