// Package categorize derives the language, keywords and topics of preprints
// with an LLM and records them for review requests that need them.
package categorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/pkoukk/tiktoken-go"

	"github.com/user/prereview/internal/types"
	"github.com/user/prereview/pkg/llm"
)

const (
	MaxKeywords = 10
	MaxTopics   = 5
)

// Result is a categorization of one preprint.
type Result struct {
	Language string   `json:"language"`
	Keywords []string `json:"keywords"`
	Topics   []string `json:"topics"`
}

// Categorizer asks an LLM to categorize preprints. The abstract is cut to a
// token budget before it is sent.
type Categorizer struct {
	provider       llm.Provider
	tokenizer      *tiktoken.Tiktoken
	abstractTokens int
	systemPrompt   string
}

type promptData struct {
	MaxKeywords int
	MaxTopics   int
}

// New creates a Categorizer. model selects the tokenizer; abstractTokens
// bounds the abstract sent to the model.
func New(provider llm.Provider, model string, abstractTokens int) (*Categorizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// Fallback to cl100k_base for unknown models
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}

	tmpl, err := template.New("categorize").Parse(DefaultPrompt)
	if err != nil {
		return nil, fmt.Errorf("parse prompt: %w", err)
	}
	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, promptData{MaxKeywords: MaxKeywords, MaxTopics: MaxTopics}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	if abstractTokens <= 0 {
		abstractTokens = 1500
	}
	return &Categorizer{
		provider:       provider,
		tokenizer:      enc,
		abstractTokens: abstractTokens,
		systemPrompt:   prompt.String(),
	}, nil
}

// Categorize returns the categorization of a preprint.
func (c *Categorizer) Categorize(ctx context.Context, preprint *types.Preprint) (Result, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Title: %s\n", preprint.Title)
	if preprint.Language != "" {
		fmt.Fprintf(&user, "Declared language: %s\n", preprint.Language)
	}
	if preprint.Abstract != "" {
		fmt.Fprintf(&user, "\nAbstract:\n%s\n", c.truncate(preprint.Abstract))
	}

	resp, err := c.provider.Complete(ctx, llm.Request{
		Messages: []llm.Message{
			llm.System(c.systemPrompt),
			llm.User(user.String()),
		},
		JSON: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("categorize %s: %w", preprint.ID, err)
	}

	var result Result
	if err := json.Unmarshal([]byte(stripFences(resp.Content)), &result); err != nil {
		return Result{}, fmt.Errorf("parse categorization of %s: %w", preprint.ID, err)
	}
	result = normalize(result)
	if result.Language == "" {
		result.Language = strings.ToLower(preprint.Language)
	}
	return result, nil
}

// truncate cuts text to the abstract token budget.
func (c *Categorizer) truncate(text string) string {
	tokens := c.tokenizer.Encode(text, nil, nil)
	if len(tokens) <= c.abstractTokens {
		return text
	}
	return c.tokenizer.Decode(tokens[:c.abstractTokens]) + " [...]"
}

func normalize(r Result) Result {
	r.Language = strings.ToLower(strings.TrimSpace(r.Language))
	r.Keywords = dedupe(r.Keywords, MaxKeywords, strings.ToLower)
	r.Topics = dedupe(r.Topics, MaxTopics, func(s string) string { return s })
	return r
}

func dedupe(values []string, limit int, canonical func(string) string) []string {
	out := make([]string, 0, min(len(values), limit))
	for _, v := range values {
		v = canonical(strings.TrimSpace(v))
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}

// stripFences removes a markdown code fence some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
