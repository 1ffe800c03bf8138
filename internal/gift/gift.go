// Package gift defines the recommendation record shared by the parser,
// the link enricher, and the CLI.
package gift

import (
	"strings"

	"github.com/google/uuid"
)

// MaxRecommendations is the upper bound on items returned to a caller.
const MaxRecommendations = 3

// Recommendation is one suggested gift.
//
// Title is the lookup key for link updates and loading flags. ID is
// generated per record so callers that need a stable identity across
// duplicate titles have one.
type Recommendation struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Price       string `json:"price" yaml:"price"`
	Link        string `json:"link" yaml:"link"`
}

// New builds a Recommendation with a fresh ID. Fields are trimmed.
func New(title, description, price, link string) Recommendation {
	return Recommendation{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Price:       strings.TrimSpace(price),
		Link:        strings.TrimSpace(link),
	}
}

// WithLink returns a copy of r with Link replaced.
func (r Recommendation) WithLink(link string) Recommendation {
	r.Link = link
	return r
}

// UpdateLink returns a copy of recs where every item titled title carries
// link. Items with other titles are unchanged.
func UpdateLink(recs []Recommendation, title, link string) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i, r := range recs {
		if r.Title == title {
			r.Link = link
		}
		out[i] = r
	}
	return out
}

// Truncate caps recs at MaxRecommendations.
func Truncate(recs []Recommendation) []Recommendation {
	if len(recs) > MaxRecommendations {
		return recs[:MaxRecommendations]
	}
	return recs
}
