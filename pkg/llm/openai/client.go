// Package openai implements llm.Provider for OpenAI-compatible chat
// completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/user/prereview/pkg/llm"
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

type Client struct {
	config     *llm.Config
	endpoint   string
	httpClient *http.Client
}

var _ llm.Provider = (*Client)(nil)

func New(config *llm.Config) *Client {
	return &Client{
		config:   config,
		endpoint: strings.TrimRight(config.BaseURL, "/") + "/chat/completions",
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// APIError is a non-200 answer from the endpoint.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("chat completion failed with status %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed later (rate limits and
// server errors).
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []llm.Message   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message      llm.Message `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *Client) payload(request llm.Request) chatRequest {
	payload := chatRequest{
		Model:     c.config.Model,
		Messages:  request.Messages,
		MaxTokens: max(c.config.MaxTokens, 0),
	}
	if t := c.config.Temperature; t != 0 {
		payload.Temperature = &t
	}
	if request.JSON {
		payload.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return payload
}

// Complete posts the request and returns the first choice.
func (c *Client) Complete(ctx context.Context, request llm.Request) (*llm.Response, error) {
	body, err := json.Marshal(c.payload(request))
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	raw, err := c.post(ctx, body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.New("chat response has no choices")
	}
	first := parsed.Choices[0]
	if first.FinishReason == "length" {
		return nil, llm.ErrTruncated
	}

	slog.DebugContext(ctx, "chat completion",
		"model", c.config.Model,
		"input_tokens", parsed.Usage.PromptTokens,
		"output_tokens", parsed.Usage.CompletionTokens,
	)
	return &llm.Response{
		Content: first.Message.Content,
		Usage: llm.Usage{
			InputTokens:  parsed.Usage.PromptTokens,
			OutputTokens: parsed.Usage.CompletionTokens,
			TotalTokens:  parsed.Usage.TotalTokens,
		},
	}, nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		text := string(raw)
		if len(text) > maxErrorBody {
			text = text[:maxErrorBody] + "..."
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: text}
	}
	return raw, nil
}
