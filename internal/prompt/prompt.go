// Package prompt handles LLM prompt construction and response parsing.
// The parser absorbs LLM output quirks (code fences, surrounding prose,
// numbered lists instead of JSON) whatever the system prompt asked for.
package prompt

import (
	"strings"

	"github.com/hpkotak/giftbud/internal/questionnaire"
)

const systemPrompt = `You are a gift recommendation expert. Using what the user tells you about the person they are shopping for, suggest 3 suitable gifts.
Reply in JSON only, as an array:
[{"title": "gift name", "description": "why it fits", "price": "estimated price range", "link": "shopping link (if any)"}]`

const taskSuffix = "Give me 3 creative and personalized gift suggestions. " +
	"Each suggestion must include a title, a description, an estimated price range and, if possible, a shopping link."

// SystemPrompt returns the system instruction that sets the expert persona
// and the output contract.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders the profile as "question: value" lines followed by
// the task instructions.
func UserPrompt(profile questionnaire.Profile) string {
	var b strings.Builder
	b.WriteString(profile.Render())
	b.WriteString("\n")
	b.WriteString(taskSuffix)
	return b.String()
}
