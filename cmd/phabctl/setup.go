package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/shell/phabricator"
	"github.com/phabops/phabctl/internal/shell/state"
	"github.com/phabops/phabctl/internal/shell/system"
)

var setupTarget string

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install Phabricator natively, without the legacy deploy script",
	Long: `Installs MariaDB, Apache, PHP, and Phabricator itself on the target and
leaves everything running.

Options such as domains and the generated database password are read from
the options file and written back after the run, so reruns keep the same
credentials. The default target is the provisioned container; --target ssh
uses the configured SSH host instead.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().StringVar(&setupTarget, "target", "container", "Where to install: container or ssh")
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	detail := fmt.Sprintf("target %s", setupTarget)

	return recordRun(ctx, domain.RunKindSetup, detail, func(ctx context.Context) error {
		shell, cleanup, err := newTargetShell(setupTarget)
		if err != nil {
			return err
		}
		defer cleanup()

		optionsFile := state.NewOptionsFile(cfg.Options.Path)
		options, err := optionsFile.Load()
		if err != nil {
			return err
		}

		installer, err := phabricator.NewInstaller(system.NewUbuntu(shell, logger), options, logger)
		if err != nil {
			return err
		}

		// Save resolved options even on failure so a generated password
		// from a partial install is not lost.
		defer func() {
			if saveErr := optionsFile.Save(installer.Options()); saveErr != nil {
				logger.Error("failed to save options file", "path", cfg.Options.Path, "error", saveErr)
			}
		}()

		return installer.Install(ctx)
	})
}
