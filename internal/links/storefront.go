// Package links attaches shopping links to recommendations.
//
// Each storefront synthesizes a search URL for a title. Storefronts marked
// Verify are probed with a real GET first and skipped when the probe fails.
// When no storefront yields a link, a generic web search URL is used, so an
// enriched recommendation never has an empty link.
package links

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// DefaultUserAgent identifies link probes to storefronts.
const DefaultUserAgent = "Mozilla/5.0 (compatible; GiftApp/1.0)"

// Storefront is a shop with a title search endpoint.
type Storefront struct {
	Name string
	// SearchURL is the search endpoint with the query parameter left open;
	// the escaped title is appended as-is.
	SearchURL string
	// Verify requests a real GET before the link is accepted.
	Verify bool
}

// URL returns the search URL for title.
func (s Storefront) URL(title string) string {
	return s.SearchURL + url.QueryEscape(title)
}

// DefaultStorefronts returns the Turkish storefronts in probe order.
func DefaultStorefronts(verify bool) []Storefront {
	return []Storefront{
		{Name: "Trendyol", SearchURL: "https://www.trendyol.com/sr?q=", Verify: verify},
		{Name: "Hepsiburada", SearchURL: "https://www.hepsiburada.com/ara?q=", Verify: verify},
		{Name: "Amazon TR", SearchURL: "https://www.amazon.com.tr/s?k=", Verify: verify},
		{Name: "N11", SearchURL: "https://www.n11.com/arama?q=", Verify: verify},
	}
}

// SearchFallback is the generic search URL used when every storefront fails.
func SearchFallback(title string) string {
	return "https://www.google.com/search?q=" + url.QueryEscape(title+" satın al türkiye")
}

// Prober resolves a storefront link for a title.
type Prober interface {
	Probe(ctx context.Context, store Storefront, title string) (string, error)
}

// HTTPProber probes storefronts over HTTP.
type HTTPProber struct {
	Client    *http.Client
	UserAgent string
}

// Probe returns the storefront search URL. For storefronts marked Verify
// the URL must answer a GET with a 2xx status.
func (p HTTPProber) Probe(ctx context.Context, store Storefront, title string) (string, error) {
	link := store.URL(title)
	if !store.Verify {
		return link, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("building %s probe: %w", store.Name, err)
	}
	ua := p.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("probing %s: %w", store.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("probing %s: status %d", store.Name, resp.StatusCode)
	}
	return link, nil
}
