package main

import (
	"github.com/spf13/cobra"
)

// installArg is the expression the legacy deploy script evaluates to run a
// full Phabricator installation.
const installArg = "phabricator.install()"

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Run the legacy deploy script's Phabricator installation",
	Long: `Shorthand for the one deploy invocation this tool exists for:

  phabctl deploy -- phabricator.install()`,
	Args: cobra.NoArgs,
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	return deployScript(cmd.Context(), []string{installArg})
}
