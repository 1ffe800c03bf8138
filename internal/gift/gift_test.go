package gift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New("  Book ", " A novel ", " 100 TRY ", "")
	b := New("Book", "A novel", "100 TRY", "")

	assert.Equal(t, "Book", a.Title)
	assert.Equal(t, "A novel", a.Description)
	assert.Equal(t, "100 TRY", a.Price)
	assert.Empty(t, a.Link)
	require.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID, "each record gets its own ID")
}

func TestUpdateLink(t *testing.T) {
	recs := []Recommendation{
		{ID: "1", Title: "Mug"},
		{ID: "2", Title: "Scarf"},
	}

	got := UpdateLink(recs, "Scarf", "https://example.com/scarf")

	assert.Equal(t, "", got[0].Link)
	assert.Equal(t, "https://example.com/scarf", got[1].Link)
	assert.Equal(t, "", recs[1].Link, "input must not be mutated")
}

func TestUpdateLinkUnknownTitle(t *testing.T) {
	recs := []Recommendation{{Title: "Mug", Link: "old"}}
	got := UpdateLink(recs, "Missing", "new")
	assert.Equal(t, recs, got)
}

func TestTruncate(t *testing.T) {
	recs := make([]Recommendation, 5)
	assert.Len(t, Truncate(recs), MaxRecommendations)
	assert.Len(t, Truncate(recs[:2]), 2)
	assert.Empty(t, Truncate(nil))
}

func TestWithLink(t *testing.T) {
	r := Recommendation{Title: "Mug"}
	got := r.WithLink("https://x")
	assert.Equal(t, "https://x", got.Link)
	assert.Empty(t, r.Link)
}
