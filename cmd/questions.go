package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hpkotak/giftbud/internal/questionnaire"
	"github.com/hpkotak/giftbud/internal/render"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print the questionnaire",
	Long: `Print the questionnaire as YAML. Use it as a reference when writing an
answers file for --answers:

  - question_id: 1
    selected_options: [Friend]
  - question_id: 6
    text_input: Loves hiking`,
	Args: cobra.NoArgs,
	RunE: runQuestions,
}

func init() {
	rootCmd.AddCommand(questionsCmd)
}

func runQuestions(cmd *cobra.Command, args []string) error {
	questions, err := questionnaire.Questions()
	if err != nil {
		return fmt.Errorf("loading questionnaire: %w", err)
	}

	if jsonFlag {
		return render.JSON(ioOut, questions)
	}

	data, err := yaml.Marshal(questions)
	if err != nil {
		return fmt.Errorf("encoding questionnaire: %w", err)
	}
	_, _ = fmt.Fprint(ioOut, string(data))
	return nil
}
