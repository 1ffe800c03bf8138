package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/hpkotak/giftbud/internal/gift"
)

// PriceNotSpecified is the price given to items recovered from free text.
const PriceNotSpecified = "Price not specified"

// ErrNoRecommendations means a parse attempt produced nothing usable.
var ErrNoRecommendations = errors.New("no recommendations found in response")

// numberedLineRe matches "1. Title" style lines after trimming.
var numberedLineRe = regexp.MustCompile(`^\d+\..*`)

type parseAttempt func(raw string) ([]gift.Recommendation, error)

// attempts run in order; the first success wins.
var attempts = []parseAttempt{
	parseJSONArray,
	parseNumberedList,
}

// ParseRecommendations turns a raw model reply into at most
// gift.MaxRecommendations items. It never fails: when neither JSON nor a
// numbered list can be recovered, DefaultRecommendations is returned.
func ParseRecommendations(raw string) []gift.Recommendation {
	for _, attempt := range attempts {
		recs, err := attempt(raw)
		if err == nil {
			return recs
		}
	}
	return DefaultRecommendations()
}

type jsonRecommendation struct {
	Title       flexString `json:"title"`
	Description flexString `json:"description"`
	Price       flexString `json:"price"`
	Link        flexString `json:"link"`
}

// flexString accepts a JSON string, number, bool or null. Models often
// emit prices as bare numbers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*f = ""
	case string:
		*f = flexString(t)
	case float64, bool:
		*f = flexString(strings.TrimSpace(string(data)))
	default:
		return fmt.Errorf("unsupported JSON value %s", data)
	}
	return nil
}

// parseJSONArray slices from the first '[' to the last ']' so that code
// fences and surrounding prose are dropped, then decodes the array.
func parseJSONArray(raw string) ([]gift.Recommendation, error) {
	start := strings.IndexByte(raw, '[')
	end := strings.LastIndexByte(raw, ']')
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array", ErrNoRecommendations)
	}

	var decoded []jsonRecommendation
	if err := json.Unmarshal([]byte(raw[start:end+1]), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRecommendations, err)
	}

	recs := make([]gift.Recommendation, 0, len(decoded))
	for _, d := range decoded {
		if strings.TrimSpace(string(d.Title)) == "" {
			continue
		}
		recs = append(recs, gift.New(string(d.Title), string(d.Description), string(d.Price), string(d.Link)))
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: JSON array has no titled items", ErrNoRecommendations)
	}
	return gift.Truncate(recs), nil
}

// parseNumberedList recovers items from "1. Title" lines. Non-blank lines
// after a marker are joined into that item's description.
func parseNumberedList(raw string) ([]gift.Recommendation, error) {
	var (
		recs        []gift.Recommendation
		title       string
		description []string
	)

	flush := func() {
		if title != "" {
			recs = append(recs, gift.New(title, strings.Join(description, " "), PriceNotSpecified, ""))
		}
	}

	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if numberedLineRe.MatchString(trimmed) {
			flush()
			_, rest, _ := strings.Cut(trimmed, ".")
			title = strings.TrimSpace(rest)
			description = nil
			continue
		}
		if title != "" {
			description = append(description, trimmed)
		}
	}
	flush()

	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: no numbered items", ErrNoRecommendations)
	}
	return gift.Truncate(recs), nil
}

// DefaultRecommendations is the fixed set shown when a reply cannot be
// parsed at all.
func DefaultRecommendations() []gift.Recommendation {
	return []gift.Recommendation{
		gift.New(
			"Personalized Photo Album",
			"A printed album of shared memories. Works for almost any relationship and occasion.",
			"300-800 TRY",
			"",
		),
		gift.New(
			"Experience Gift Card",
			"A voucher for a cooking class, concert, or spa day so they can pick something they enjoy.",
			"500-1500 TRY",
			"",
		),
		gift.New(
			"Gourmet Coffee and Tea Set",
			"A curated selection of specialty coffee and teas with a mug.",
			"250-600 TRY",
			"",
		),
	}
}
