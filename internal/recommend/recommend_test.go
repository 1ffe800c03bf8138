package recommend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpkotak/giftbud/internal/gift"
	"github.com/hpkotak/giftbud/internal/links"
	"github.com/hpkotak/giftbud/internal/prompt"
	"github.com/hpkotak/giftbud/internal/provider"
	"github.com/hpkotak/giftbud/internal/questionnaire"
)

type fakeProvider struct {
	mu       sync.Mutex
	credErr  error
	reply    string
	chatErr  error
	requests []provider.ChatRequest
}

func (f *fakeProvider) Chat(_ context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.chatErr != nil {
		return provider.ChatResponse{}, f.chatErr
	}
	return provider.ChatResponse{Text: f.reply}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) CheckCredentials() error { return f.credErr }

func (f *fakeProvider) Available(context.Context) error { return nil }

func (f *fakeProvider) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) lastRequest() provider.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

type proberFunc func(ctx context.Context, store links.Storefront, title string) (string, error)

func (f proberFunc) Probe(ctx context.Context, store links.Storefront, title string) (string, error) {
	return f(ctx, store, title)
}

func newTestService(p provider.Provider, prober links.Prober, logger *slog.Logger) *Service {
	if prober == nil {
		prober = links.HTTPProber{}
	}
	enricher := links.NewEnricher(prober, links.DefaultStorefronts(false), nil)
	return NewService(NewClient(p, ""), enricher, logger)
}

func testQuestions(t *testing.T) []questionnaire.Question {
	t.Helper()
	qs, err := questionnaire.Questions()
	require.NoError(t, err)
	return qs
}

func testAnswers() []questionnaire.Answer {
	return []questionnaire.Answer{
		{QuestionID: 1, SelectedOptions: []string{"Friend"}},
		{QuestionID: 4, SelectedOptions: []string{"Technology", "Books"}},
		{QuestionID: 6, TextInput: "Loves sci-fi novels"},
		{QuestionID: 99, TextInput: "ignored"},
	}
}

const jsonReply = `Sure! [
 {"title":"Kindle Paperwhite","description":"E-reader","price":"5000 TL","link":""},
 {"title":"Sci-fi Box Set","description":"Classic trilogy","price":"900 TL"}
]`

func TestRequestRecommendations(t *testing.T) {
	fp := &fakeProvider{reply: "hello"}
	c := NewClient(fp, "llama-3.3-70b-versatile")

	got, err := c.RequestRecommendations(context.Background(), "profile text")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	req := fp.lastRequest()
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, prompt.SystemPrompt(), req.Messages[0].Content)
	assert.Equal(t, "user", req.Messages[1].Role)
	assert.Equal(t, "profile text", req.Messages[1].Content)
	assert.Equal(t, "llama-3.3-70b-versatile", req.Model)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.7, *req.Temperature, 1e-9)
	assert.Equal(t, 1000, req.MaxTokens)
}

func TestRequestRecommendationsConfigErrorMakesNoCall(t *testing.T) {
	fp := &fakeProvider{credErr: &provider.Error{Kind: provider.KindConfig, Message: "API key is not set"}}

	_, err := NewClient(fp, "").RequestRecommendations(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, provider.KindConfig, provider.KindOf(err))
	assert.Zero(t, fp.calls())
}

func TestGetRecommendationsJSON(t *testing.T) {
	fp := &fakeProvider{reply: jsonReply}
	s := newTestService(fp, nil, nil)

	recs, err := s.GetRecommendations(context.Background(), testAnswers(), testQuestions(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "Kindle Paperwhite", recs[0].Title)
	assert.Equal(t, "https://www.trendyol.com/sr?q=Kindle+Paperwhite", recs[0].Link)
	assert.Equal(t, "Sci-fi Box Set", recs[1].Title)
	assert.NotEmpty(t, recs[1].Link)

	user := fp.lastRequest().Messages[1].Content
	assert.Contains(t, user, "Technology, Books")
	assert.Contains(t, user, "Loves sci-fi novels")
	assert.NotContains(t, user, "ignored")
}

func TestGetRecommendationsNumberedText(t *testing.T) {
	fp := &fakeProvider{reply: "1. Yoga Mat\nNon-slip\n\n2. Tea Set\nAssorted\nteas"}
	s := newTestService(fp, nil, nil)

	recs, err := s.GetRecommendations(context.Background(), testAnswers(), testQuestions(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Tea Set", recs[1].Title)
	assert.Equal(t, "Assorted teas", recs[1].Description)
	assert.Equal(t, prompt.PriceNotSpecified, recs[1].Price)
}

func TestGetRecommendationsUnparseableUsesDefaults(t *testing.T) {
	fp := &fakeProvider{reply: "I cannot help with that."}
	s := newTestService(fp, nil, nil)

	recs, err := s.GetRecommendations(context.Background(), testAnswers(), testQuestions(t))
	require.NoError(t, err)

	defaults := prompt.DefaultRecommendations()
	require.Len(t, recs, len(defaults))
	for i := range defaults {
		assert.Equal(t, defaults[i].Title, recs[i].Title)
		assert.NotEmpty(t, recs[i].Link)
	}
}

func TestGetRecommendationsFailures(t *testing.T) {
	tests := []struct {
		name      string
		provider  *fakeProvider
		wantKind  provider.Kind
		wantCalls int
	}{
		{
			name:     "config",
			provider: &fakeProvider{credErr: &provider.Error{Kind: provider.KindConfig}},
			wantKind: provider.KindConfig,
		},
		{
			name:      "rate limit",
			provider:  &fakeProvider{chatErr: &provider.Error{Kind: provider.KindRateLimit, StatusCode: 429}},
			wantKind:  provider.KindRateLimit,
			wantCalls: 1,
		},
		{
			name:      "auth",
			provider:  &fakeProvider{chatErr: &provider.Error{Kind: provider.KindAuth, StatusCode: 401}},
			wantKind:  provider.KindAuth,
			wantCalls: 1,
		},
		{
			name:      "network",
			provider:  &fakeProvider{chatErr: &provider.Error{Kind: provider.KindNetwork}},
			wantKind:  provider.KindNetwork,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
			s := newTestService(tt.provider, nil, logger)

			recs, err := s.GetRecommendations(context.Background(), testAnswers(), testQuestions(t))
			require.Error(t, err)
			assert.Nil(t, recs)
			assert.Equal(t, tt.wantKind, provider.KindOf(err))
			assert.Equal(t, tt.wantCalls, tt.provider.calls(), "no retries")
			assert.Contains(t, logs.String(), "code="+tt.wantKind.Code())
		})
	}
}

func TestGetRecommendationsLogsStages(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newTestService(&fakeProvider{reply: jsonReply}, nil, logger)

	_, err := s.GetRecommendations(context.Background(), testAnswers(), testQuestions(t))
	require.NoError(t, err)

	out := logs.String()
	for _, stage := range []string{"stage=profile", "stage=request", "stage=parse", "stage=enrich"} {
		assert.Contains(t, out, stage)
	}
	assert.Contains(t, out, "provider=fake")
	assert.Contains(t, out, "items=2")
}

func TestRefreshLink(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	prober := proberFunc(func(_ context.Context, store links.Storefront, title string) (string, error) {
		entered <- struct{}{}
		<-release
		return "", errors.New("status 503")
	})
	s := NewService(NewClient(&fakeProvider{}, ""),
		links.NewEnricher(prober, links.DefaultStorefronts(true)[:1], nil), nil)

	rec := gift.New("Yoga Mat", "Non-slip", "600 TL", "")
	done := make(chan gift.Recommendation)
	go func() { done <- s.RefreshLink(context.Background(), rec) }()

	<-entered
	assert.True(t, s.IsRefreshing("Yoga Mat"))
	assert.False(t, s.IsRefreshing("Tea Set"))
	close(release)

	select {
	case got := <-done:
		assert.Equal(t, links.SearchFallback("Yoga Mat"), got.Link)
		assert.Equal(t, rec.ID, got.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("RefreshLink did not return")
	}
	assert.False(t, s.IsRefreshing("Yoga Mat"))
}

func TestRefreshLinkRecoversFromPanic(t *testing.T) {
	prober := proberFunc(func(context.Context, links.Storefront, string) (string, error) {
		panic("boom")
	})
	s := NewService(NewClient(&fakeProvider{}, ""),
		links.NewEnricher(prober, links.DefaultStorefronts(true), nil), nil)

	rec := gift.New("Kite", "", "", "https://example.com/kite")
	got := s.RefreshLink(context.Background(), rec)
	assert.Equal(t, rec, got)
	assert.False(t, s.IsRefreshing("Kite"))
}

func TestProductLinks(t *testing.T) {
	s := newTestService(&fakeProvider{}, nil, nil)
	got := s.ProductLinks(context.Background(), "Kite")
	require.Len(t, got, 4)
	assert.Equal(t, "Trendyol", got[0].Platform)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{name: "nil", err: nil},
		{name: "plain", err: errors.New("boom"), want: []string{"boom"}},
		{
			name: "config",
			err:  &provider.Error{Kind: provider.KindConfig, Message: "API key is not set"},
			want: []string{"[CONFIG]", "giftbud setup", "API key is not set"},
		},
		{name: "auth", err: &provider.Error{Kind: provider.KindAuth}, want: []string{"[AUTH]", "rejected"}},
		{name: "billing", err: &provider.Error{Kind: provider.KindBilling}, want: []string{"[BILLING]"}},
		{name: "rate limit", err: &provider.Error{Kind: provider.KindRateLimit}, want: []string{"[RATE_LIMIT]", "Wait"}},
		{name: "upstream", err: &provider.Error{Kind: provider.KindUpstreamUnavailable}, want: []string{"[UPSTREAM_UNAVAILABLE]"}},
		{name: "api", err: &provider.Error{Kind: provider.KindAPI, Message: "teapot"}, want: []string{"[API]", "teapot"}},
		{name: "api with status", err: &provider.Error{Kind: provider.KindAPI, StatusCode: 406, Message: "Not Acceptable"}, want: []string{"[API]", "(406: Not Acceptable)"}},
		{name: "api status only", err: &provider.Error{Kind: provider.KindAPI, StatusCode: 418}, want: []string{"[API]", "(418)"}},
		{name: "empty", err: &provider.Error{Kind: provider.KindEmptyResponse}, want: []string{"[EMPTY_RESPONSE]"}},
		{
			name: "wrapped network",
			err:  fmt.Errorf("requesting: %w", &provider.Error{Kind: provider.KindNetwork}),
			want: []string{"[NETWORK]", "internet connection"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestUserMessageCodesAreDistinct(t *testing.T) {
	kinds := []provider.Kind{
		provider.KindConfig, provider.KindAuth, provider.KindBilling, provider.KindRateLimit,
		provider.KindUpstreamUnavailable, provider.KindAPI, provider.KindEmptyResponse, provider.KindNetwork,
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := UserMessage(&provider.Error{Kind: k})
		assert.False(t, seen[msg], "duplicate message for %s", k)
		seen[msg] = true
	}
}
