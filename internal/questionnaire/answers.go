package questionnaire

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Answer is the user's response to one question. SelectedOptions is used
// by choice questions, TextInput by free-text ones.
type Answer struct {
	QuestionID      int      `yaml:"question_id"`
	SelectedOptions []string `yaml:"selected_options,omitempty"`
	TextInput       string   `yaml:"text_input,omitempty"`
}

// Answers keeps one answer per question id. Setting an id again replaces
// the earlier answer but keeps its original position.
type Answers struct {
	order []int
	byID  map[int]Answer
}

// NewAnswers returns an Answers set seeded with as, applied in order.
func NewAnswers(as ...Answer) *Answers {
	a := &Answers{byID: make(map[int]Answer)}
	for _, ans := range as {
		a.Set(ans)
	}
	return a
}

// Set records ans, replacing any earlier answer for the same question.
func (a *Answers) Set(ans Answer) {
	if a.byID == nil {
		a.byID = make(map[int]Answer)
	}
	if _, ok := a.byID[ans.QuestionID]; !ok {
		a.order = append(a.order, ans.QuestionID)
	}
	ans.SelectedOptions = slices.Clone(ans.SelectedOptions)
	a.byID[ans.QuestionID] = ans
}

// Get returns the answer for a question id.
func (a *Answers) Get(id int) (Answer, bool) {
	ans, ok := a.byID[id]
	return ans, ok
}

// List returns the answers in first-set order.
func (a *Answers) List() []Answer {
	out := make([]Answer, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}

// Missing returns the questions that have no valid answer yet.
func (a *Answers) Missing(questions []Question) []Question {
	var missing []Question
	for _, q := range questions {
		ans, ok := a.Get(q.ID)
		if !ok || q.Validate(ans) != nil {
			missing = append(missing, q)
		}
	}
	return missing
}

// LoadAnswers reads an answers file: a YAML list of answers.
func LoadAnswers(path string) ([]Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading answers: %w", err)
	}

	var as []Answer
	if err := yaml.Unmarshal(data, &as); err != nil {
		return nil, fmt.Errorf("parsing answers: %w", err)
	}
	return as, nil
}
