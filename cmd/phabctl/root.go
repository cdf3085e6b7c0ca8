package main

import (
	"log/slog"

	"github.com/spf13/cobra"
)

var (
	configPath string

	cfg    *Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "phabctl",
	Short: "Phabricator provisioning and deployment CLI",
	Long: `phabctl provisions a Docker-hosted Phabricator instance and drives its
installation.

A typical first run:

  phabctl bootstrap     # prepare the Python environment for deploy.py
  phabctl provision     # create the network and container
  phabctl setup         # install Phabricator inside the container`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}
		logger = SetupLogger(cfg)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func Execute() error {
	return rootCmd.Execute()
}
