// Package llm provides the text-completion boundary workers call during
// task execution. Backends: the hosted Anthropic API (optionally via
// AWS Bedrock) and a local Ollama server.
package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Generator is the single call workers make against the LLM
// collaborator. Implementations must honor ctx cancellation and
// deadlines; a slow backend surfaces as a task failure, never a hung
// worker.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Config selects and configures a backend.
type Config struct {
	// Backend is "anthropic" or "ollama".
	Backend string
	// Model is the default model when the caller passes none.
	Model string
	// APIKey is the Anthropic API key (anthropic backend).
	APIKey string
	// BaseURL is the Ollama server address (ollama backend).
	BaseURL string
	// Timeout bounds each Generate call at the transport level.
	Timeout time.Duration
	// UseAWSBedrock routes the anthropic backend through Bedrock.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region.
	AWSRegion string
	// AWSProfile is the optional AWS profile name.
	AWSProfile string
}

// New creates a Generator for the configured backend.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "ollama":
		return NewOllamaClient(cfg.BaseURL, cfg.Timeout), nil
	case "anthropic":
		return NewAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unknown llm backend %q", cfg.Backend)
	}
}

// TokenTracker tracks token usage across API calls.
type TokenTracker struct {
	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
}

// NewTokenTracker creates a new token tracker.
func NewTokenTracker() *TokenTracker {
	return &TokenTracker{}
}

// Add records token usage from an API call.
func (t *TokenTracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *TokenTracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of API calls made.
func (t *TokenTracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Cost estimates the cost in USD based on current Claude pricing.
// This uses approximate pricing and should be updated as pricing changes.
func (t *TokenTracker) Cost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	// Sonnet pricing: $3/1M input, $15/1M output (approximate)
	inputCost := float64(t.inputTok) / 1_000_000 * 3.0
	outputCost := float64(t.outputTok) / 1_000_000 * 15.0
	return inputCost + outputCost
}
