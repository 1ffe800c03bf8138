// Package provider defines the LLM backend interface and implementations.
// New backends implement the Provider interface and map their failures
// onto the shared error taxonomy in errors.go.
package provider

import "context"

// Message represents a single message in a conversation.
// Decoupled from any specific LLM API so callers don't import
// backend-specific types.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// ChatRequest represents a normalized LLM request.
type ChatRequest struct {
	Messages    []Message
	Model       string
	Temperature *float64 // nil uses the backend default
	MaxTokens   int      // 0 uses the backend default
}

// Usage represents token usage metadata when available.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// ChatResponse is a normalized provider response.
type ChatResponse struct {
	// Text is the first completion's content.
	Text string
	// FinishReason is provider stop reason, when available.
	FinishReason string
	// Usage is token usage metadata, when available.
	Usage Usage
}

// Provider sends conversations to an LLM backend.
type Provider interface {
	// Chat sends the request and returns the first completion. Failures
	// are returned as *Error.
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Name returns the provider name (e.g., "groq").
	Name() string

	// CheckCredentials validates the configured API key locally, without
	// any network call. Failures are *Error with KindConfig.
	CheckCredentials() error

	// Available checks if this provider is reachable and the model exists.
	Available(ctx context.Context) error
}
