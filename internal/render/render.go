// Package render formats recommendations for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hpkotak/giftbud/internal/gift"
	"github.com/hpkotak/giftbud/internal/links"
)

var (
	colorAccent = lipgloss.Color("#fe8019")
	colorGreen  = lipgloss.Color("#8ec07c")
	colorBlue   = lipgloss.Color("#83a598")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
)

var (
	styleTitle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	stylePrice  = lipgloss.NewStyle().Foreground(colorGreen)
	styleLink   = lipgloss.NewStyle().Foreground(colorBlue).Underline(true)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleError  = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	styleHeader = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	styleCard   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			PaddingLeft(2).
			PaddingRight(2).
			Width(72)
)

// Header renders a section header with an underline.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return styleHeader.Render(text) + "\n" + styleDim.Render(line)
}

// Card renders one recommendation as a bordered card. n is its 1-based
// position; loading marks a link refresh in flight.
func Card(n int, rec gift.Recommendation, loading bool) string {
	var b strings.Builder
	b.WriteString(styleTitle.Render(fmt.Sprintf("%d. %s", n, rec.Title)))
	if rec.Price != "" {
		b.WriteString("  ")
		b.WriteString(stylePrice.Render(rec.Price))
	}
	if rec.Description != "" {
		b.WriteString("\n")
		b.WriteString(rec.Description)
	}

	b.WriteString("\n")
	switch {
	case loading:
		b.WriteString(styleDim.Render("Searching for a link..."))
	case rec.Link != "":
		b.WriteString(styleLink.Render(rec.Link))
	default:
		b.WriteString(styleDim.Render("No link yet"))
	}
	return styleCard.Render(b.String())
}

// Cards renders recs under a header.
func Cards(recs []gift.Recommendation) string {
	parts := make([]string, 0, len(recs)+1)
	parts = append(parts, Header("Gift ideas"))
	for i, r := range recs {
		parts = append(parts, Card(i+1, r, false))
	}
	return strings.Join(parts, "\n")
}

// ProductLinks renders the storefront links found for title.
func ProductLinks(title string, found []links.ProductLink) string {
	var b strings.Builder
	b.WriteString(Header("Links for " + title))
	if len(found) == 0 {
		b.WriteString("\n")
		b.WriteString(styleDim.Render("No storefront answered. Try the search link instead:"))
		b.WriteString("\n")
		b.WriteString(styleLink.Render(links.SearchFallback(title)))
		return b.String()
	}
	for _, l := range found {
		fmt.Fprintf(&b, "\n%-12s %s", l.Platform, styleLink.Render(l.URL))
	}
	return b.String()
}

// Error renders a user-facing failure message.
func Error(msg string) string {
	return styleError.Render("Error: ") + msg
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
