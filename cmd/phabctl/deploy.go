package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/core/domain"
)

var deployCmd = &cobra.Command{
	Use:   "deploy [args...]",
	Short: "Run the legacy deploy script with the environment's interpreter",
	Long: `Runs the configured deploy script inside the virtual environment, passing
every argument through verbatim. Use "--" to keep flags meant for the script
away from phabctl:

  phabctl deploy -- phabricator.install()`,
	Args: cobra.ArbitraryArgs,
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, args []string) error {
	return deployScript(cmd.Context(), args)
}

// deployScript runs the deploy script with args, recording the run.
func deployScript(ctx context.Context, args []string) error {
	detail := cfg.Deploy.Script
	if len(args) > 0 {
		detail += " " + strings.Join(args, " ")
	}

	return recordRun(ctx, domain.RunKindDeploy, detail, func(ctx context.Context) error {
		manager := newVenvManager()
		_, err := manager.RunScript(ctx, cfg.Deploy.Script, args)
		return err
	})
}
