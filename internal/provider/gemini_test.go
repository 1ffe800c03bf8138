package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeminiKey = "AIza-test-key"

func newTestGemini(t *testing.T, serverURL, apiKey string) *GeminiProvider {
	t.Helper()
	p, err := NewGemini(serverURL, "gemini-1.5-flash", apiKey, nil)
	require.NoError(t, err)
	return p
}

func TestGeminiChat(t *testing.T) {
	var got geminiRequest
	var path, key string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		key = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"parts":[{"text":" [{\"title\":\"Kite\"}] "}]},"finishReason":"STOP"}],
			"usageMetadata":{"promptTokenCount":7,"candidatesTokenCount":3,"totalTokenCount":10}
		}`))
	}))
	defer srv.Close()

	temp := 0.7
	resp, err := newTestGemini(t, srv.URL, testGeminiKey).Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: "system", Content: "sys"},
			{Role: "user", Content: "profile"},
		},
		Temperature: &temp,
		MaxTokens:   1000,
	})
	require.NoError(t, err)

	assert.Equal(t, `[{"title":"Kite"}]`, resp.Text)
	assert.Equal(t, "STOP", resp.FinishReason)
	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 3, TotalTokens: 10}, resp.Usage)

	assert.Equal(t, "/models/gemini-1.5-flash:generateContent", path)
	assert.Equal(t, testGeminiKey, key)
	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "sys\n\nprofile", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.Equal(t, 1000, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiChatErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    Kind
		wantMsg string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "bad key", want: KindAuth, wantMsg: "bad key"},
		{name: "rate limited", status: http.StatusTooManyRequests, want: KindRateLimit, wantMsg: "unknown error"},
		{name: "unavailable", status: http.StatusServiceUnavailable, body: "overloaded", want: KindUpstreamUnavailable},
		{name: "bad request", status: http.StatusBadRequest, body: "nope", want: KindAPI},
		{name: "no candidates", status: http.StatusOK, body: `{"candidates":[]}`, want: KindEmptyResponse},
		{name: "no parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`, want: KindEmptyResponse},
		{name: "undecodable body", status: http.StatusOK, body: `<html>`, want: KindAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestGemini(t, srv.URL, testGeminiKey).Chat(context.Background(), ChatRequest{
				Messages: []Message{{Role: "user", Content: "hi"}},
			})
			require.Error(t, err)
			assert.Equal(t, tt.want, KindOf(err), "error: %v", err)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGeminiRejectsPlaceholderKey(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := newTestGemini(t, srv.URL, GeminiKeyPlaceholder).Chat(context.Background(), ChatRequest{
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.Zero(t, hits.Load())
}

func TestGeminiAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"name":"models/gemini-1.5-flash"}`))
	}))
	defer srv.Close()

	assert.NoError(t, newTestGemini(t, srv.URL, testGeminiKey).Available(context.Background()))

	missing, err := NewGemini(srv.URL, "missing", testGeminiKey, nil)
	require.NoError(t, err)
	assert.Equal(t, KindAPI, KindOf(missing.Available(context.Background())))
}

func TestFoldMessages(t *testing.T) {
	got := foldMessages([]Message{
		{Role: "system", Content: " a "},
		{Role: "user", Content: ""},
		{Role: "user", Content: "b"},
	})
	assert.Equal(t, "a\n\nb", got)
}
