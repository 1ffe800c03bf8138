package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hpkotak/giftbud/internal/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration (API key masked)",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("no config found. Run 'giftbud setup' first")
		}
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	_, _ = fmt.Fprintf(ioOut, "Config file: %s\n\n", config.Path())
	_, _ = fmt.Fprint(ioOut, string(data))
	return nil
}
