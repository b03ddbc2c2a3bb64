// Package llm is the minimal chat completion surface used for
// categorizing preprints.
package llm

import "context"

// Provider completes chat requests against some model backend.
type Provider interface {
	Complete(ctx context.Context, request Request) (*Response, error)
}

// Config is shared by every provider implementation.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
}
