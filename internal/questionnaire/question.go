// Package questionnaire owns the fixed question set, the user's answers,
// and the profile derived from them for prompt rendering.
package questionnaire

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// QuestionType controls how a question is answered.
type QuestionType int

const (
	FreeText QuestionType = iota
	SingleChoice
	MultipleChoice
)

func (t QuestionType) String() string {
	switch t {
	case SingleChoice:
		return "single_choice"
	case MultipleChoice:
		return "multiple_choice"
	default:
		return "free_text"
	}
}

func (t QuestionType) MarshalYAML() (any, error) {
	return t.String(), nil
}

func (t *QuestionType) UnmarshalYAML(node *yaml.Node) error {
	return t.parse(node.Value)
}

func (t QuestionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *QuestionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("question type must be a string: %w", err)
	}
	return t.parse(s)
}

func (t *QuestionType) parse(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "free_text", "text":
		*t = FreeText
	case "single_choice":
		*t = SingleChoice
	case "multiple_choice":
		*t = MultipleChoice
	default:
		return fmt.Errorf("unknown question type %q", s)
	}
	return nil
}

// Question is one entry of the static questionnaire.
type Question struct {
	ID      int          `json:"id" yaml:"id"`
	Text    string       `json:"text" yaml:"text"`
	Type    QuestionType `json:"type" yaml:"type"`
	Options []string     `json:"options,omitempty" yaml:"options,omitempty"`
}

// Validate checks that answer is acceptable for q: free text must be
// non-blank, choice questions need at least one known option and
// single-choice questions at most one.
func (q Question) Validate(a Answer) error {
	switch q.Type {
	case FreeText:
		if strings.TrimSpace(a.TextInput) == "" {
			return fmt.Errorf("question %d: answer cannot be empty", q.ID)
		}
	case SingleChoice, MultipleChoice:
		if len(a.SelectedOptions) == 0 {
			return fmt.Errorf("question %d: select at least one option", q.ID)
		}
		if q.Type == SingleChoice && len(a.SelectedOptions) > 1 {
			return fmt.Errorf("question %d: select only one option", q.ID)
		}
		for _, opt := range a.SelectedOptions {
			if !slices.Contains(q.Options, opt) {
				return fmt.Errorf("question %d: unknown option %q", q.ID, opt)
			}
		}
	}
	return nil
}

//go:embed questions.yaml
var questionsYAML []byte

var (
	defaultQuestions    []Question
	defaultQuestionsErr error
	loadOnce            sync.Once
)

// Questions returns the built-in questionnaire. The set is parsed once and
// a fresh copy is returned on every call.
func Questions() ([]Question, error) {
	loadOnce.Do(func() {
		defaultQuestions, defaultQuestionsErr = ParseQuestions(questionsYAML)
	})
	if defaultQuestionsErr != nil {
		return nil, defaultQuestionsErr
	}
	out := make([]Question, len(defaultQuestions))
	for i, q := range defaultQuestions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out, nil
}

// ParseQuestions decodes and checks a YAML question list.
func ParseQuestions(data []byte) ([]Question, error) {
	var qs []Question
	if err := yaml.Unmarshal(data, &qs); err != nil {
		return nil, fmt.Errorf("parsing questions: %w", err)
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("questionnaire is empty")
	}

	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if seen[q.ID] {
			return nil, fmt.Errorf("duplicate question id %d", q.ID)
		}
		seen[q.ID] = true

		if strings.TrimSpace(q.Text) == "" {
			return nil, fmt.Errorf("question %d has no text", q.ID)
		}
		switch q.Type {
		case FreeText:
			if len(q.Options) > 0 {
				return nil, fmt.Errorf("question %d: free text questions take no options", q.ID)
			}
		default:
			if len(q.Options) == 0 {
				return nil, fmt.Errorf("question %d: choice questions need options", q.ID)
			}
		}
	}
	return qs, nil
}

// Find returns the question with the given id.
func Find(questions []Question, id int) (Question, bool) {
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}
