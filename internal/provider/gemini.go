package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// GeminiDefaultHost is the Generative Language API base.
	GeminiDefaultHost = "https://generativelanguage.googleapis.com/v1beta"
	// GeminiKeyPlaceholder is the sentinel shipped in sample configs.
	GeminiKeyPlaceholder = "YOUR_GEMINI_API_KEY_HERE"

	geminiErrorBodyLimit = 512
)

var geminiKeys = keyPolicy{
	placeholder: GeminiKeyPlaceholder,
	prefix:      "AIza",
	envHint:     "GIFTBUD_API_KEY",
}

// GeminiProvider implements Provider using the Gemini generateContent API.
// The key travels as a query parameter and all messages are folded into a
// single text part.
type GeminiProvider struct {
	client *http.Client
	host   string
	model  string
	apiKey string
}

// NewGemini creates a GeminiProvider for host and model.
func NewGemini(host, model, apiKey string, httpClient *http.Client) (*GeminiProvider, error) {
	base := strings.TrimSpace(host)
	if base == "" {
		return nil, fmt.Errorf("gemini host cannot be empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parsing gemini host URL: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeouts())
	}

	return &GeminiProvider{
		client: httpClient,
		host:   strings.TrimRight(base, "/"),
		model:  model,
		apiKey: apiKey,
	}, nil
}

func (g *GeminiProvider) Name() string { return "gemini" }

func (g *GeminiProvider) CheckCredentials() error {
	return geminiKeys.check(g.Name(), g.apiKey)
}

// Available fetches the model resource to confirm the key and model.
func (g *GeminiProvider) Available(ctx context.Context) error {
	if err := g.CheckCredentials(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.modelURL(g.model, ""), nil)
	if err != nil {
		return fmt.Errorf("building gemini availability request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return requestError(g.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(g.Name(), resp.StatusCode, readErrorBody(resp.Body))
	}
	return nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

// Chat sends the conversation and returns the first candidate's text.
func (g *GeminiProvider) Chat(ctx context.Context, chatReq ChatRequest) (ChatResponse, error) {
	if err := g.CheckCredentials(); err != nil {
		return ChatResponse{}, err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: foldMessages(chatReq.Messages)}}}},
	}
	if chatReq.Temperature != nil || chatReq.MaxTokens > 0 {
		reqBody.GenerationConfig = &geminiGenerationConfig{
			Temperature:     chatReq.Temperature,
			MaxOutputTokens: chatReq.MaxTokens,
		}
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("encoding gemini request: %w", err)
	}

	model := resolveModel(chatReq.Model, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.modelURL(model, ":generateContent"), bytes.NewReader(body))
	if err != nil {
		return ChatResponse{}, fmt.Errorf("building gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return ChatResponse{}, requestError(g.Name(), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return ChatResponse{}, statusError(g.Name(), resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded struct {
		Candidates []struct {
			Content struct {
				Parts []geminiPart `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		UsageMetadata struct {
			PromptTokenCount     int `json:"promptTokenCount"`
			CandidatesTokenCount int `json:"candidatesTokenCount"`
			TotalTokenCount      int `json:"totalTokenCount"`
		} `json:"usageMetadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ChatResponse{}, requestError(g.Name(), fmt.Errorf("decoding gemini response: %w", err))
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return ChatResponse{}, emptyResponseError(g.Name())
	}

	text := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return ChatResponse{}, emptyResponseError(g.Name())
	}

	return ChatResponse{
		Text:         text,
		FinishReason: decoded.Candidates[0].FinishReason,
		Usage: Usage{
			InputTokens:  decoded.UsageMetadata.PromptTokenCount,
			OutputTokens: decoded.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  decoded.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

func (g *GeminiProvider) modelURL(model, action string) string {
	return g.host + "/models/" + url.PathEscape(model) + action + "?key=" + url.QueryEscape(g.apiKey)
}

// foldMessages joins a conversation into one prompt, system text first.
func foldMessages(msgs []Message) string {
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if c := strings.TrimSpace(m.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, geminiErrorBodyLimit))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "unknown error"
	}
	return text
}
