package questionnaire

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when the user cancels the wizard.
var ErrAborted = errors.New("questionnaire aborted")

// wizardState holds the form-bound values, one slot per question.
type wizardState struct {
	questions []Question
	texts     []string
	singles   []string
	multis    [][]string
}

func newWizardState(questions []Question, prefill *Answers) *wizardState {
	st := &wizardState{
		questions: questions,
		texts:     make([]string, len(questions)),
		singles:   make([]string, len(questions)),
		multis:    make([][]string, len(questions)),
	}
	if prefill == nil {
		return st
	}
	for i, q := range questions {
		ans, ok := prefill.Get(q.ID)
		if !ok {
			continue
		}
		st.texts[i] = ans.TextInput
		if len(ans.SelectedOptions) > 0 {
			st.singles[i] = ans.SelectedOptions[0]
		}
		st.multis[i] = append([]string(nil), ans.SelectedOptions...)
	}
	return st
}

// answers converts the bound values back into Answer records.
func (st *wizardState) answers() []Answer {
	out := make([]Answer, 0, len(st.questions))
	for i, q := range st.questions {
		ans := Answer{QuestionID: q.ID}
		switch q.Type {
		case FreeText:
			ans.TextInput = strings.TrimSpace(st.texts[i])
		case SingleChoice:
			if st.singles[i] != "" {
				ans.SelectedOptions = []string{st.singles[i]}
			}
		case MultipleChoice:
			ans.SelectedOptions = append([]string(nil), st.multis[i]...)
		}
		out = append(out, ans)
	}
	return out
}

func (st *wizardState) form() *huh.Form {
	groups := make([]*huh.Group, 0, len(st.questions))
	for i, q := range st.questions {
		title := fmt.Sprintf("%d/%d  %s", i+1, len(st.questions), q.Text)

		var field huh.Field
		switch q.Type {
		case FreeText:
			field = huh.NewInput().
				Title(title).
				Value(&st.texts[i]).
				Validate(func(s string) error {
					return q.Validate(Answer{QuestionID: q.ID, TextInput: s})
				})
		case SingleChoice:
			field = huh.NewSelect[string]().
				Title(title).
				Options(huh.NewOptions(q.Options...)...).
				Value(&st.singles[i])
		case MultipleChoice:
			field = huh.NewMultiSelect[string]().
				Title(title).
				Options(huh.NewOptions(q.Options...)...).
				Value(&st.multis[i]).
				Validate(func(v []string) error {
					return q.Validate(Answer{QuestionID: q.ID, SelectedOptions: v})
				})
		}
		groups = append(groups, huh.NewGroup(field))
	}
	return huh.NewForm(groups...).WithTheme(huh.ThemeCharm()).WithShowHelp(true)
}

// Wizard walks the user through the questionnaire one question at a time.
type Wizard struct {
	Questions []Question
	In        io.Reader
	Out       io.Writer
	// Accessible switches huh to line-based prompts for non-TTY sessions.
	Accessible bool
}

// Run shows the form and records every answer into answers. Existing
// answers pre-fill the form, so a second run edits rather than restarts.
func (w Wizard) Run(answers *Answers) error {
	st := newWizardState(w.Questions, answers)
	form := st.form().WithAccessible(w.Accessible)
	if w.In != nil {
		form = form.WithInput(w.In)
	}
	if w.Out != nil {
		form = form.WithOutput(w.Out)
	}

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return fmt.Errorf("running questionnaire: %w", err)
	}

	for _, ans := range st.answers() {
		answers.Set(ans)
	}
	return nil
}
