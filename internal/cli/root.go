// Package cli wires the factshield commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/factshield/factshield/internal/config"
	"github.com/factshield/factshield/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFolder string
}

// NewRootCommand creates the factshield root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "factshield",
		Short:         "FactShield case-file publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFolder, "config", "config", "path to folder with public.yaml and private.yaml")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewSweepCommand(opts))

	return cmd
}

// loadConfig reads the configuration and points the global logger at the
// configured level.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigFolder)
	if err != nil {
		return nil, err
	}
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.JSON)
	return cfg, nil
}
