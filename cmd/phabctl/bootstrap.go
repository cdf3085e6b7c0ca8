package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/core/domain"
)

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Prepare the Python environment for the legacy deploy script",
	Long: `Creates the virtual environment if it does not exist and installs the
configured packages into it, in order. With the defaults that means wheel
first, then paramiko.`,
	Args: cobra.NoArgs,
	RunE: runBootstrap,
}

func init() {
	rootCmd.AddCommand(bootstrapCmd)
}

func runBootstrap(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	detail := "venv " + cfg.Venv.Dir + ": " + strings.Join(cfg.Venv.Packages, ", ")

	return recordRun(ctx, domain.RunKindBootstrap, detail, func(ctx context.Context) error {
		manager := newVenvManager()

		created, err := manager.Ensure(ctx)
		if err != nil {
			return err
		}
		if created {
			logger.Info("virtual environment created", "dir", manager.Dir())
		} else {
			logger.Info("virtual environment already present", "dir", manager.Dir())
		}

		return manager.InstallPackages(ctx, cfg.Venv.Packages)
	})
}
