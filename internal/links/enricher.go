package links

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hpkotak/giftbud/internal/gift"
)

// ProductLink is a storefront link found for a recommendation.
type ProductLink struct {
	Platform string `json:"platform"`
	Title    string `json:"title"`
	URL      string `json:"url"`
}

// Enricher fills in recommendation links. It is safe for concurrent use.
type Enricher struct {
	prober      Prober
	storefronts []Storefront
	logger      *slog.Logger
}

// NewEnricher returns an Enricher probing storefronts in order. A nil
// logger discards output.
func NewEnricher(prober Prober, storefronts []Storefront, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Enricher{
		prober:      prober,
		storefronts: storefronts,
		logger:      logger,
	}
}

// Enrich returns rec with Link set to the first storefront link found, or
// the search fallback. Probe failures are logged and skipped.
func (e *Enricher) Enrich(ctx context.Context, rec gift.Recommendation) gift.Recommendation {
	for _, store := range e.storefronts {
		link, err := e.prober.Probe(ctx, store, rec.Title)
		if err != nil {
			e.logger.Debug("link probe failed", "storefront", store.Name, "title", rec.Title, "error", err)
			continue
		}
		if link != "" {
			return rec.WithLink(link)
		}
	}
	return rec.WithLink(SearchFallback(rec.Title))
}

// EnrichAll enriches every item concurrently. The result keeps input order
// and length. If the batch fails as a whole (a panicking probe or a
// cancelled context), recs is returned unchanged.
func (e *Enricher) EnrichAll(ctx context.Context, recs []gift.Recommendation) []gift.Recommendation {
	out := make([]gift.Recommendation, len(recs))

	g, gCtx := errgroup.WithContext(ctx)
	for i, rec := range recs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("enriching %q: panic: %v", rec.Title, r)
				}
			}()
			out[i] = e.Enrich(gCtx, rec)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		e.logger.Warn("link enrichment failed, keeping original links", "error", err)
		return recs
	}
	if err := ctx.Err(); err != nil {
		e.logger.Warn("link enrichment cancelled, keeping original links", "error", err)
		return recs
	}
	return out
}

// ProductLinks probes every storefront for title and returns one link per
// storefront that answered, in storefront order.
func (e *Enricher) ProductLinks(ctx context.Context, title string) []ProductLink {
	found := make([]string, len(e.storefronts))

	var g errgroup.Group
	for i, store := range e.storefronts {
		g.Go(func() error {
			link, err := e.prober.Probe(ctx, store, title)
			if err != nil {
				e.logger.Debug("link probe failed", "storefront", store.Name, "title", title, "error", err)
				return nil
			}
			found[i] = link
			return nil
		})
	}
	_ = g.Wait()

	var out []ProductLink
	for i, link := range found {
		if link == "" {
			continue
		}
		out = append(out, ProductLink{Platform: e.storefronts[i].Name, Title: title, URL: link})
	}
	return out
}
