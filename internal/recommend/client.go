// Package recommend turns questionnaire answers into linked gift
// recommendations: one LLM call, tolerant parsing, parallel link enrichment.
package recommend

import (
	"context"

	"github.com/hpkotak/giftbud/internal/prompt"
	"github.com/hpkotak/giftbud/internal/provider"
)

const (
	// Temperature used for every recommendation request.
	Temperature = 0.7
	// MaxTokens caps the completion length.
	MaxTokens = 1000
)

// Client asks an LLM backend for raw recommendation text.
type Client struct {
	provider provider.Provider
	model    string
}

// NewClient returns a Client for p. An empty model uses the provider's
// configured default.
func NewClient(p provider.Provider, model string) *Client {
	return &Client{provider: p, model: model}
}

// RequestRecommendations sends the system prompt and promptText as a single
// request and returns the completion text. Credentials are checked first so
// a missing or placeholder key fails without any network call. Failures are
// *provider.Error.
func (c *Client) RequestRecommendations(ctx context.Context, promptText string) (string, error) {
	if err := c.provider.CheckCredentials(); err != nil {
		return "", err
	}

	temp := Temperature
	resp, err := c.provider.Chat(ctx, provider.ChatRequest{
		Messages: []provider.Message{
			{Role: "system", Content: prompt.SystemPrompt()},
			{Role: "user", Content: promptText},
		},
		Model:       c.model,
		Temperature: &temp,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
