package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hpkotak/giftbud/internal/config"
	"github.com/hpkotak/giftbud/internal/provider"
	"github.com/hpkotak/giftbud/internal/setup"
)

var runSetup = setup.Run

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Configure giftbud (first-time or reconfigure)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := config.Load()
		if err != nil {
			if !errors.Is(err, config.ErrNotFound) {
				return fmt.Errorf("loading config: %w", err)
			}
			current = nil
		}

		timeouts := provider.DefaultTimeouts()
		if current != nil {
			timeouts = current.HTTPTimeouts()
		}

		_, err = runSetup(commandContext(cmd), setup.Options{
			In:         ioIn,
			Out:        ioOut,
			Current:    current,
			HTTPClient: provider.NewHTTPClient(timeouts),
		})
		return err
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
