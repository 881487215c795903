package main

import (
	"context"
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by completers constructed without an API key
var ErrMissingAPIKey = errors.New("LLM API key not configured")

// ErrEmptyCompletion is returned when the provider answers with no text
var ErrEmptyCompletion = errors.New("empty completion")

// Completer produces a single completion for a system role and a user prompt
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("HTTP %d for %s: %s", e.StatusCode, e.URL, e.Body)
	}
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// NewCompleter builds the completion backend named by cfg.Provider.
// A missing API key is not an error here; calls fail later and degrade.
func NewCompleter(ctx context.Context, cfg ProviderConfig) (Completer, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// truncate shortens s for error messages and logs
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
