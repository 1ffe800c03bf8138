package questionnaire

import (
	"fmt"
	"strings"
)

// ProfileValue is the effective value of one answer. It is either a
// TextValue or a ChoicesValue.
type ProfileValue interface {
	render() string
}

// TextValue is a single free-text or single-choice value.
type TextValue string

func (v TextValue) render() string { return string(v) }

// ChoicesValue is a multiple-choice value.
type ChoicesValue []string

func (v ChoicesValue) render() string { return strings.Join(v, ", ") }

// ProfileEntry pairs a question's text with its answer value.
type ProfileEntry struct {
	Question string
	Value    ProfileValue
}

// Profile is the per-request view of the user's answers keyed by question
// text, in answer order.
type Profile []ProfileEntry

// BuildProfile matches each answer to its question. Answers whose
// question id is unknown are skipped.
func BuildProfile(answers []Answer, questions []Question) Profile {
	profile := make(Profile, 0, len(answers))
	for _, ans := range answers {
		q, ok := Find(questions, ans.QuestionID)
		if !ok {
			continue
		}

		var v ProfileValue
		switch q.Type {
		case FreeText:
			v = TextValue(ans.TextInput)
		case SingleChoice:
			first := ""
			if len(ans.SelectedOptions) > 0 {
				first = ans.SelectedOptions[0]
			}
			v = TextValue(first)
		case MultipleChoice:
			v = ChoicesValue(ans.SelectedOptions)
		}
		profile = append(profile, ProfileEntry{Question: q.Text, Value: v})
	}
	return profile
}

// Render formats the profile as "question: value" lines. Multiple-choice
// values are comma-joined.
func (p Profile) Render() string {
	var b strings.Builder
	for _, e := range p {
		value := ""
		if e.Value != nil {
			value = e.Value.render()
		}
		fmt.Fprintf(&b, "%s: %s\n", e.Question, value)
	}
	return b.String()
}
