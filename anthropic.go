package main

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient completes prompts through llmkit's Anthropic client
type AnthropicClient struct {
	apiKey   string
	settings types.RequestSettings
}

// NewAnthropicClient creates a completer for the Anthropic Messages API
func NewAnthropicClient(cfg ProviderConfig) *AnthropicClient {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	return &AnthropicClient{
		apiKey: cfg.APIKey,
		settings: types.RequestSettings{
			Model:       cfg.Model,
			MaxTokens:   maxTokens,
			Temperature: cfg.Temperature,
		},
	}
}

// Complete sends the prompt without a schema and returns the first text block.
// llmkit does not take a context, so cancellation is only checked up front.
func (c *AnthropicClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, "", c.apiKey, c.settings)
	if err != nil {
		return "", fmt.Errorf("anthropic prompt failed: %w", err)
	}

	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return response.Content[0].Text, nil
}
