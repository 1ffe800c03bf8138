package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hpkotak/giftbud/internal/gift"
	"github.com/hpkotak/giftbud/internal/links"
	"github.com/hpkotak/giftbud/internal/prompt"
	"github.com/hpkotak/giftbud/internal/provider"
	"github.com/hpkotak/giftbud/internal/questionnaire"
)

// Service orchestrates recommendation requests and per-item link refreshes.
// It is safe for concurrent use.
type Service struct {
	client   *Client
	provider string
	enricher *links.Enricher
	tracker  *links.Tracker
	logger   *slog.Logger
}

// NewService wires a Service. A nil logger discards output.
func NewService(client *Client, enricher *links.Enricher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		client:   client,
		provider: client.provider.Name(),
		enricher: enricher,
		tracker:  links.NewTracker(),
		logger:   logger,
	}
}

// GetRecommendations builds a profile from answers, asks the LLM, parses
// the reply and enriches every item with a link. The result always has 1
// to 3 items with non-empty titles. Only the LLM call can fail; its error
// is a *provider.Error.
func (s *Service) GetRecommendations(ctx context.Context, answers []questionnaire.Answer, questions []questionnaire.Question) ([]gift.Recommendation, error) {
	started := time.Now()

	if err := s.client.provider.CheckCredentials(); err != nil {
		s.logFailure(ctx, "credentials", started, err)
		return nil, err
	}

	profile := questionnaire.BuildProfile(answers, questions)
	s.logger.DebugContext(ctx, "profile built", "stage", "profile", "entries", len(profile))

	raw, err := s.client.RequestRecommendations(ctx, prompt.UserPrompt(profile))
	if err != nil {
		s.logFailure(ctx, "request", started, err)
		return nil, err
	}
	s.logger.DebugContext(ctx, "completion received",
		"stage", "request",
		"provider", s.provider,
		"duration_ms", time.Since(started).Milliseconds(),
		"bytes", len(raw),
	)

	recs := prompt.ParseRecommendations(raw)
	s.logger.DebugContext(ctx, "recommendations parsed", "stage", "parse", "items", len(recs))

	recs = s.enricher.EnrichAll(ctx, recs)
	s.logger.InfoContext(ctx, "recommendations ready",
		"stage", "enrich",
		"provider", s.provider,
		"duration_ms", time.Since(started).Milliseconds(),
		"items", len(recs),
	)
	return recs, nil
}

// RefreshLink looks up a new link for rec. The title is reported as
// in progress by IsRefreshing while the lookup runs. A panicking probe
// leaves rec unchanged.
func (s *Service) RefreshLink(ctx context.Context, rec gift.Recommendation) (out gift.Recommendation) {
	s.tracker.Begin(rec.Title)
	started := time.Now()
	defer func() {
		s.tracker.End(rec.Title)
		if r := recover(); r != nil {
			s.logger.WarnContext(ctx, "link refresh failed", "stage", "refresh", "title", rec.Title, "error", fmt.Sprint(r))
			out = rec
		}
	}()

	out = s.enricher.Enrich(ctx, rec)
	s.logger.DebugContext(ctx, "link refreshed",
		"stage", "refresh",
		"title", rec.Title,
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return out
}

// IsRefreshing reports whether a link refresh for title is in flight.
func (s *Service) IsRefreshing(title string) bool {
	return s.tracker.InProgress(title)
}

// ProductLinks lists every storefront link found for title.
func (s *Service) ProductLinks(ctx context.Context, title string) []links.ProductLink {
	return s.enricher.ProductLinks(ctx, title)
}

func (s *Service) logFailure(ctx context.Context, stage string, started time.Time, err error) {
	s.logger.ErrorContext(ctx, "recommendation request failed",
		"stage", stage,
		"provider", s.provider,
		"duration_ms", time.Since(started).Milliseconds(),
		"code", provider.KindOf(err).Code(),
		"error", err.Error(),
	)
}
