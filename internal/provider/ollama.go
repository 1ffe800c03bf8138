package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"
)

// OllamaDefaultHost is the local Ollama server address.
const OllamaDefaultHost = "http://localhost:11434"

// OllamaProvider implements Provider using a local Ollama instance.
// It needs no API key.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllama creates an OllamaProvider connected to the given host and model.
func NewOllama(host, model string, httpClient *http.Client) (*OllamaProvider, error) {
	base, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("parsing ollama host URL: %w", err)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(DefaultTimeouts())
	}
	return &OllamaProvider{client: api.NewClient(base, httpClient), model: model}, nil
}

func (o *OllamaProvider) Name() string { return "ollama" }

func (o *OllamaProvider) CheckCredentials() error { return nil }

// Available checks if Ollama is reachable and the configured model exists.
func (o *OllamaProvider) Available(ctx context.Context) error {
	models, err := o.client.List(ctx)
	if err != nil {
		return fmt.Errorf("cannot reach Ollama at configured host: %w", err)
	}

	for _, m := range models.Models {
		if m.Name == o.model {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in Ollama", o.model)
}

// Models lists the models installed on the Ollama server.
func (o *OllamaProvider) Models(ctx context.Context) ([]string, error) {
	resp, err := o.client.List(ctx)
	if err != nil {
		return nil, o.classify(err)
	}
	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Pull downloads model onto the Ollama server. progress, when non-nil,
// receives completed and total bytes as the download advances.
func (o *OllamaProvider) Pull(ctx context.Context, model string, progress func(completed, total int64)) error {
	err := o.client.Pull(ctx, &api.PullRequest{Model: model}, func(resp api.ProgressResponse) error {
		if progress != nil {
			progress(resp.Completed, resp.Total)
		}
		return nil
	})
	if err != nil {
		return o.classify(err)
	}
	return nil
}

// Chat sends the conversation to Ollama and returns the assistant response.
// Converts provider.Message to api.Message internally so callers stay
// decoupled from the Ollama client library.
func (o *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	apiMessages := make([]api.Message, len(req.Messages))
	for i, m := range req.Messages {
		apiMessages[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	ollamaReq := &api.ChatRequest{
		Model:    resolveModel(req.Model, o.model),
		Messages: apiMessages,
		Stream:   &stream,
		Options:  map[string]any{},
	}
	if req.Temperature != nil {
		ollamaReq.Options["temperature"] = *req.Temperature
	}
	if req.MaxTokens > 0 {
		ollamaReq.Options["num_predict"] = req.MaxTokens
	}

	var finalResp api.ChatResponse
	err := o.client.Chat(ctx, ollamaReq, func(resp api.ChatResponse) error {
		finalResp = resp
		return nil
	})
	if err != nil {
		return ChatResponse{}, o.classify(err)
	}

	result := strings.TrimSpace(finalResp.Message.Content)
	if result == "" {
		return ChatResponse{}, emptyResponseError(o.Name())
	}

	usage := Usage{
		InputTokens:  finalResp.PromptEvalCount,
		OutputTokens: finalResp.EvalCount,
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	return ChatResponse{
		Text:         result,
		FinishReason: finalResp.DoneReason,
		Usage:        usage,
	}, nil
}

func (o *OllamaProvider) classify(err error) *Error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusError(o.Name(), statusErr.StatusCode, statusErr.ErrorMessage)
	}
	return requestError(o.Name(), err)
}
