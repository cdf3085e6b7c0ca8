package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/shell/store"
)

var (
	runsKind  string
	runsLimit int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recorded runs, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsKind, "kind", "", "Filter by kind: bootstrap, provision, deploy, or setup")
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	opts := store.ListOptions{Limit: runsLimit}

	var runs []domain.Run
	if runsKind != "" {
		runs, err = st.ListRunsByKind(ctx, domain.RunKind(runsKind), opts)
	} else {
		runs, err = st.ListRuns(ctx, opts)
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tSTATUS\tSTARTED\tDURATION\tDETAIL")
	for _, run := range runs {
		duration := "-"
		if run.FinishedAt != nil {
			duration = run.Duration().Round(time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			run.ID, run.Kind, run.Status,
			run.StartedAt.Local().Format(time.RFC3339),
			duration, run.Detail)
	}
	return w.Flush()
}
