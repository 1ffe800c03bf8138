package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hpkotak/giftbud/internal/config"
)

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update a configuration value",
	Long: `Update a configuration value. Supported keys:
  provider          LLM provider (groq/gemini/ollama)
  model             Model name (e.g., llama-3.1-8b-instant)
  api_key           API key for groq or gemini
  groq.host         Groq API base URL
  gemini.host       Gemini API base URL
  ollama.host       Ollama server URL
  links.verify      Probe storefronts before linking (true/false)
  links.user_agent  User-Agent for storefront probes
  timeouts.connect  Connect timeout (e.g., 10s)
  timeouts.read     Response timeout (e.g., 15s)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	cfg, err := config.Load()
	if err != nil {
		if !errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = config.Default()
	}

	if err := cfg.Set(key, value); err != nil {
		return err
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	shown := value
	if key == "api_key" {
		shown = config.MaskKey(value)
	}
	_, _ = fmt.Fprintf(ioOut, "Set %s = %s\n", key, shown)
	return nil
}
