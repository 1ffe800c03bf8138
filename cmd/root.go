package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hpkotak/giftbud/internal/config"
	"github.com/hpkotak/giftbud/internal/links"
	"github.com/hpkotak/giftbud/internal/provider"
	"github.com/hpkotak/giftbud/internal/questionnaire"
	"github.com/hpkotak/giftbud/internal/recommend"
	"github.com/hpkotak/giftbud/internal/render"
)

var (
	modelFlag   string
	verboseFlag bool
	answersFlag string
	jsonFlag    bool
)

// requestTimeout bounds one full recommendation run.
const requestTimeout = 60 * time.Second

// Package-level function variables for testability.
// Tests override these to avoid real provider calls and terminal prompts.
var (
	newProvider   = provider.NewFromConfig
	resolveConfig = config.Resolve
	isInteractive = func() bool {
		fd := os.Stdin.Fd()
		return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	runWizard = func(questions []questionnaire.Question, answers *questionnaire.Answers) error {
		w := questionnaire.Wizard{
			Questions:  questions,
			Accessible: os.Getenv("ACCESSIBLE") != "",
		}
		return w.Run(answers)
	}
	ioIn  io.Reader = os.Stdin
	ioOut io.Writer = os.Stdout
	ioErr io.Writer = os.Stderr
)

var rootCmd = &cobra.Command{
	Use:   "giftbud",
	Short: "Personalized gift ideas from a short questionnaire",
	Long: `giftbud asks a few questions about the person you are shopping for,
asks an LLM for three gift ideas, and attaches a shopping link to each.

Examples:
  giftbud                          answer the questionnaire interactively
  giftbud --answers answers.yaml   use a prepared answers file
  giftbud --json > ideas.json      machine-readable output`,
	Args:              cobra.NoArgs,
	RunE:              runRecommend,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override model for this run")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "log pipeline stages to stderr")
	rootCmd.Flags().StringVarP(&answersFlag, "answers", "a", "", "read answers from a YAML file instead of prompting")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "print results as JSON")
}

// Execute runs the root command and prints any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		_, _ = fmt.Fprintln(ioErr, render.Error(err.Error()))
	}
	return err
}

// displayError shows a provider failure as a user message while keeping
// the cause available to errors.As.
type displayError struct{ err error }

func (e displayError) Error() string { return recommend.UserMessage(e.err) }

func (e displayError) Unwrap() error { return e.err }

func runRecommend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	questions, err := questionnaire.Questions()
	if err != nil {
		return fmt.Errorf("loading questionnaire: %w", err)
	}

	answers, err := collectAnswers(questions)
	if errors.Is(err, questionnaire.ErrAborted) {
		_, _ = fmt.Fprintln(ioOut, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	if missing := answers.Missing(questions); len(missing) > 0 {
		ids := make([]string, len(missing))
		for i, q := range missing {
			ids[i] = strconv.Itoa(q.ID)
		}
		return fmt.Errorf("questionnaire incomplete: answer question(s) %s", strings.Join(ids, ", "))
	}

	svc, err := buildService(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), requestTimeout)
	defer cancel()

	recs, err := svc.GetRecommendations(ctx, answers.List(), questions)
	if err != nil {
		return displayError{err}
	}

	if jsonFlag {
		return render.JSON(ioOut, recs)
	}
	_, _ = fmt.Fprintln(ioOut, render.Cards(recs))
	return nil
}

func collectAnswers(questions []questionnaire.Question) (*questionnaire.Answers, error) {
	if answersFlag != "" {
		list, err := questionnaire.LoadAnswers(answersFlag)
		if err != nil {
			return nil, err
		}
		return questionnaire.NewAnswers(list...), nil
	}

	if !isInteractive() {
		return nil, fmt.Errorf("no terminal detected. Pass --answers <file> (see 'giftbud questions')")
	}

	answers := questionnaire.NewAnswers()
	if err := runWizard(questions, answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func loadConfig() (*config.Config, error) {
	cfg, _, err := resolveConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config (run 'giftbud setup'): %w", err)
	}
	return cfg, nil
}

// buildService wires the pipeline. One HTTP client is shared by the
// provider and the link enricher.
func buildService(cfg *config.Config) (*recommend.Service, error) {
	httpClient := provider.NewHTTPClient(cfg.HTTPTimeouts())

	p, err := newProvider(cfg.ProviderConfig(httpClient))
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}

	logger := newLogger(ioErr, verboseFlag)
	enricher := links.NewEnricher(newProber(httpClient, cfg), links.DefaultStorefronts(cfg.Links.Verify), logger)
	return recommend.NewService(recommend.NewClient(p, cfg.Model), enricher, logger), nil
}

var newProber = func(httpClient *http.Client, cfg *config.Config) links.Prober {
	return links.HTTPProber{Client: httpClient, UserAgent: cfg.Links.UserAgent}
}

// newLogger returns a debug-level text logger on w, or a discarding logger
// when verbose is off.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
