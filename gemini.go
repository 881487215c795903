package main

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API natively through the genai SDK
type GeminiClient struct {
	client *genai.Client
	model  string
	config ProviderConfig
}

// NewGeminiClient creates a genai-backed completer. Without an API key the
// SDK client is not created and every call returns ErrMissingAPIKey.
func NewGeminiClient(ctx context.Context, cfg ProviderConfig) (*GeminiClient, error) {
	return newGeminiClient(ctx, cfg, genai.HTTPOptions{})
}

func newGeminiClient(ctx context.Context, cfg ProviderConfig, httpOptions genai.HTTPOptions) (*GeminiClient, error) {
	g := &GeminiClient{model: cfg.Model, config: cfg}
	if cfg.APIKey == "" {
		return g, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Complete generates content with the persona as system instruction
func (g *GeminiClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}

	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(float32(g.config.Temperature)),
	}
	if g.config.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(g.config.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}

	return resp.Text(), nil
}
