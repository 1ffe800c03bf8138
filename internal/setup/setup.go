// Package setup handles first-run onboarding: choosing a provider, entering
// an API key or picking a local Ollama model, and saving the config.
// Starting Ollama requires explicit user consent.
package setup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hpkotak/giftbud/internal/config"
	"github.com/hpkotak/giftbud/internal/provider"
)

// Package-level function variables for testability.
var (
	lookPath     = exec.LookPath
	execCommand  = exec.Command
	newProvider  = provider.NewFromConfig
	saveConfig   = config.Save
	pollInterval = time.Second
)

var providerChoices = []struct {
	name string
	desc string
}{
	{"groq", "Groq cloud API (free key at https://console.groq.com)"},
	{"gemini", "Google Gemini API (key at https://aistudio.google.com)"},
	{"ollama", "Local Ollama server (no key needed)"},
}

// Options configures a setup run. In and Out are injectable for testability.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Current    *config.Config // starting values; nil uses config.Default
	HTTPClient *http.Client
}

// Run executes the interactive setup flow and returns the saved config.
func Run(ctx context.Context, opts Options) (*config.Config, error) {
	p := newPrompter(opts.In, opts.Out)

	cfg := config.Default()
	if opts.Current != nil {
		c := *opts.Current
		cfg = &c
	}

	p.println("giftbud setup")
	p.println("=============")

	name, err := p.chooseProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}
	if name != cfg.Provider {
		cfg.Provider = name
		cfg.Model = config.DefaultModels[name]
	}

	if name == "ollama" {
		if err := ensureOllamaRunning(cfg.Ollama.Host, p); err != nil {
			return nil, err
		}
		op, err := provider.NewOllama(cfg.Ollama.Host, cfg.Model, opts.HTTPClient)
		if err != nil {
			return nil, err
		}
		model, err := selectModel(ctx, op, p, cfg.Model)
		if err != nil {
			return nil, err
		}
		cfg.Model = model
	} else {
		key, err := p.readAPIKey(name, cfg.APIKey)
		if err != nil {
			return nil, err
		}
		cfg.APIKey = key
		if model := p.ask(fmt.Sprintf("Model [%s]: ", cfg.Model)); model != "" {
			cfg.Model = model
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	built, err := newProvider(cfg.ProviderConfig(opts.HTTPClient))
	if err != nil {
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	if err := built.CheckCredentials(); err != nil {
		return nil, err
	}

	verifyCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := built.Available(verifyCtx); err != nil {
		p.printf("[!!] Could not verify %s: %v\n", name, err)
		p.println("     Saving anyway. Check the key and network, then rerun: giftbud setup")
	} else {
		p.printf("[ok] %s is reachable and %s is available\n", name, cfg.Model)
	}

	if err := saveConfig(cfg); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	p.printf("\nConfig saved to %s\n", config.Path())
	p.println("Ready! Try: giftbud")
	return cfg, nil
}

// modelSource is the part of the Ollama provider setup needs.
type modelSource interface {
	Models(ctx context.Context) ([]string, error)
	Pull(ctx context.Context, model string, progress func(completed, total int64)) error
}

func selectModel(ctx context.Context, src modelSource, p *prompter, current string) (string, error) {
	listCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	models, err := src.Models(listCtx)
	if err != nil {
		return "", fmt.Errorf("listing models: %w", err)
	}

	if len(models) == 0 {
		return pullRecommendedModel(ctx, src, p)
	}

	def := 1
	p.println("\nAvailable models:")
	for i, m := range models {
		if m == current {
			def = i + 1
		}
		p.printf("  %d. %s\n", i+1, m)
	}

	idx, err := p.pick(fmt.Sprintf("\nSelect default model [%d]: ", def), def, len(models))
	if err != nil {
		return "", err
	}

	selected := models[idx-1]
	p.printf("[ok] Selected: %s\n", selected)
	return selected, nil
}

func pullRecommendedModel(ctx context.Context, src modelSource, p *prompter) (string, error) {
	p.println("\nNo models found. Pull a recommended model?")
	p.println("  1. llama3.2:3b   (fast, ~2GB)")
	p.println("  2. qwen2.5:7b    (better suggestions, ~4.7GB)")
	p.println("  3. Skip")

	idx, err := p.pick("\nSelect [1]: ", 1, 3)
	if err != nil {
		return "", err
	}

	var model string
	switch idx {
	case 1:
		model = "llama3.2:3b"
	case 2:
		model = "qwen2.5:7b"
	default:
		return "", fmt.Errorf("no model selected. Pull a model manually with: ollama pull <model>")
	}

	p.printf("Pulling %s (this may take a few minutes)...\n", model)

	pullCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	err = src.Pull(pullCtx, model, func(completed, total int64) {
		if total > 0 {
			p.printf("\r  %.0f%% downloaded", float64(completed)/float64(total)*100)
		}
	})
	if err != nil {
		return "", fmt.Errorf("pulling model: %w", err)
	}
	p.printf("\n[ok] %s ready\n", model)
	return model, nil
}

func ensureOllamaRunning(host string, p *prompter) error {
	if isOllamaReachable(host) {
		p.println("[ok] Ollama is running")
		return nil
	}

	p.println("[!!] Ollama is not running")
	if _, err := lookPath("ollama"); err != nil {
		return fmt.Errorf("ollama is not installed. Install it from https://ollama.com")
	}
	if !p.confirm("Start Ollama?", true) {
		return fmt.Errorf("ollama must be running. Start it with: ollama serve")
	}

	p.println("Starting Ollama in background...")
	// Ollama keeps running after giftbud exits.
	cmd := execCommand("ollama", "serve")
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ollama: %w", err)
	}

	for i := 0; i < 10; i++ {
		time.Sleep(pollInterval)
		if isOllamaReachable(host) {
			p.println("[ok] Ollama is running")
			return nil
		}
		p.print(".")
	}

	return fmt.Errorf("ollama did not start within 10 seconds")
}

func isOllamaReachable(host string) bool {
	client := http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(host)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// prompter reads answers line by line from a single buffered reader.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

func (p *prompter) print(s string) { _, _ = fmt.Fprint(p.out, s) }

func (p *prompter) println(s string) { _, _ = fmt.Fprintln(p.out, s) }

func (p *prompter) printf(format string, a ...any) { _, _ = fmt.Fprintf(p.out, format, a...) }

// readLine reads a single line, trimming whitespace. EOF yields "".
func (p *prompter) readLine() string {
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (p *prompter) ask(prompt string) string {
	p.print(prompt)
	return p.readLine()
}

// pick reads a 1-based choice in [1, n]. An empty answer selects def.
func (p *prompter) pick(prompt string, def, n int) (int, error) {
	input := p.ask(prompt)
	if input == "" {
		return def, nil
	}
	idx, err := strconv.Atoi(input)
	if err != nil || idx < 1 || idx > n {
		return 0, fmt.Errorf("invalid selection: %s", input)
	}
	return idx, nil
}

func (p *prompter) confirm(prompt string, defaultYes bool) bool {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}

	switch strings.ToLower(p.ask(prompt + " " + hint + ": ")) {
	case "":
		return defaultYes
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *prompter) chooseProvider(current string) (string, error) {
	def := 1
	p.println("\nProviders:")
	for i, c := range providerChoices {
		if c.name == current {
			def = i + 1
		}
		p.printf("  %d. %-7s %s\n", i+1, c.name, c.desc)
	}

	idx, err := p.pick(fmt.Sprintf("\nSelect provider [%d]: ", def), def, len(providerChoices))
	if err != nil {
		return "", err
	}
	name := providerChoices[idx-1].name
	p.printf("[ok] Provider: %s\n", name)
	return name, nil
}

// readAPIKey asks for a key. An empty answer keeps current.
func (p *prompter) readAPIKey(name, current string) (string, error) {
	prompt := fmt.Sprintf("%s API key (or set %s): ", name, config.EnvAPIKey)
	if current != "" {
		prompt = fmt.Sprintf("%s API key [%s]: ", name, config.MaskKey(current))
	}

	key := p.ask(prompt)
	if key == "" {
		key = current
	}
	if key == "" {
		return "", fmt.Errorf("an API key is required for %s", name)
	}
	return key, nil
}
