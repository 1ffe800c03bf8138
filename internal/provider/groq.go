package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// GroqDefaultHost is Groq's OpenAI-compatible API base.
	GroqDefaultHost = "https://api.groq.com/openai/v1"
	// GroqKeyPlaceholder is the sentinel shipped in sample configs.
	GroqKeyPlaceholder = "YOUR_GROQ_API_KEY_HERE"
)

var groqKeys = keyPolicy{
	placeholder: GroqKeyPlaceholder,
	prefix:      "gsk_",
	envHint:     "GIFTBUD_API_KEY",
}

// GroqProvider implements Provider using Groq's OpenAI-compatible Chat
// Completions API.
type GroqProvider struct {
	client openai.Client
	model  string
	apiKey string
}

// NewGroq creates a GroqProvider for host and model. The API key is checked
// per request by CheckCredentials, not here, so a bad key surfaces as a
// classified configuration error. Retries are disabled.
func NewGroq(host, model, apiKey string, httpClient *http.Client) (*GroqProvider, error) {
	base := strings.TrimSpace(host)
	if base == "" {
		return nil, fmt.Errorf("groq host cannot be empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing groq host URL: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeouts())
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(base, "/")+"/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	)

	return &GroqProvider{
		client: client,
		model:  model,
		apiKey: apiKey,
	}, nil
}

func (g *GroqProvider) Name() string { return "groq" }

func (g *GroqProvider) CheckCredentials() error {
	return groqKeys.check(g.Name(), g.apiKey)
}

// Available checks if Groq is reachable and the configured model exists.
func (g *GroqProvider) Available(ctx context.Context) error {
	if err := g.CheckCredentials(); err != nil {
		return err
	}

	page, err := g.client.Models.List(ctx)
	if err != nil {
		return g.classify(err)
	}
	for _, m := range page.Data {
		if m.ID == g.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in Groq models list", g.model)
}

// Chat sends the conversation and returns the first choice.
func (g *GroqProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := g.CheckCredentials(); err != nil {
		return ChatResponse{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:    resolveModel(req.Model, g.model),
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return ChatResponse{}, g.classify(err)
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, emptyResponseError(g.Name())
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return ChatResponse{}, emptyResponseError(g.Name())
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	return ChatResponse{
		Text:         text,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage:        usage,
	}, nil
}

func (g *GroqProvider) classify(err error) *Error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return statusError(g.Name(), apiErr.StatusCode, apiErr.Message)
	}
	return requestError(g.Name(), err)
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
