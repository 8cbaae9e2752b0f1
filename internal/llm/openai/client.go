// Package openai implements llm.Client against any OpenAI-compatible
// chat-completions endpoint.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"universe-curator/internal/llm"
)

// DefaultMaxResponseBytes bounds response bodies read from the provider.
const DefaultMaxResponseBytes int64 = 8 << 20

// Client talks to an OpenAI-compatible /chat/completions endpoint.
// HTTP and MaxResponseBytes are exported so tests can inject transports
// and shrink the body limit.
type Client struct {
	Endpoint string
	APIKey   string

	HTTP             *http.Client
	MaxResponseBytes int64
}

// New creates a client for the given endpoint and API key.
func New(endpoint, apiKey string) *Client {
	return &Client{
		Endpoint:         strings.TrimRight(endpoint, "/"),
		APIKey:           apiKey,
		HTTP:             &http.Client{Timeout: 60 * time.Second},
		MaxResponseBytes: DefaultMaxResponseBytes,
	}
}

// Compile-time interface check.
var _ llm.Client = (*Client)(nil)

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Chat sends one chat-completions request.
func (c *Client) Chat(ctx context.Context, req llm.Request) (llm.Result, error) {
	start := time.Now()

	payload := chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}
	if req.ForceJSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	if v, ok := req.Parameters["temperature"].(float64); ok {
		payload.Temperature = &v
	}
	if v, ok := req.Parameters["max_tokens"].(int); ok {
		payload.MaxTokens = &v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return llm.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.Endpoint+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return llm.Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return llm.Result{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	limit := c.MaxResponseBytes
	if limit <= 0 {
		limit = DefaultMaxResponseBytes
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return llm.Result{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return llm.Result{}, fmt.Errorf("chat completions status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return llm.Result{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return llm.Result{}, fmt.Errorf("chat completions error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return llm.Result{}, fmt.Errorf("chat completions returned no choices")
	}

	return llm.Result{
		Text: parsed.Choices[0].Message.Content,
		Usage: llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
		Duration: time.Since(start),
	}, nil
}
