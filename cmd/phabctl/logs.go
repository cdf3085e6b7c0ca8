package main

import (
	"os"

	"github.com/docker/docker/pkg/stdcopy"
	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/shell/docker"
)

var (
	logsFollow bool
	logsTail   string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the Phabricator container's logs",
	Args:  cobra.NoArgs,
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output")
	logsCmd.Flags().StringVar(&logsTail, "tail", "all", "Number of lines to show from the end")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	client, err := newDockerClient()
	if err != nil {
		return err
	}
	defer client.Close()

	reader, err := client.ContainerLogs(cfg.Container.Name, docker.LogOptions{
		Follow: logsFollow,
		Tail:   logsTail,
	})
	if err != nil {
		return err
	}
	defer reader.Close()

	// Non-TTY container logs arrive multiplexed.
	_, err = stdcopy.StdCopy(os.Stdout, os.Stderr, reader)
	return err
}
