package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/leeforge/essentials/config"
	"github.com/leeforge/essentials/env_mode"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	envFile    string
	mode       string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	defaults := config.DefaultOptions()

	rootCmd := &cobra.Command{
		Use:   "essentials",
		Short: "Dependency-aware plugin installer",
		Long: `Essentials installs plugins together with the plugins they depend on.

Installation can stop part way: a plugin may wait for user input, for a
dependency, or for the application to be rebuilt and restarted. States are
persisted so that "essentials restart" picks up where the last run stopped.

Quick Start:
  essentials list                         # Show plugins and their states
  essentials install blog                 # Install blog and its dependencies
  essentials install mail --param host=smtp.local
  essentials restart --rebuild            # Resume after a rebuild
  essentials serve                        # Run the HTTP API`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", opts.envFile, err)
			}
			if opts.mode != "" {
				env_mode.Set(env_mode.Parse(opts.mode))
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaults.BasePath, "Directory holding config.yaml and its overlays")
	flags.StringVar(&opts.envFile, "env-file", ".env", "Environment file loaded before the configuration")
	flags.StringVar(&opts.mode, "mode", "", "Runtime mode (development, production, test); overrides "+env_mode.EnvKey)

	rootCmd.AddCommand(
		newServeCmd(opts),
		newInstallCmd(opts),
		newRestartCmd(opts),
		newRebuildCmd(opts),
		newListCmd(opts),
	)
	return rootCmd
}
