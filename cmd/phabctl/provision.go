package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/docker"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Create the Docker network and the Phabricator container",
	Long: `Creates the network if it does not already exist, then creates and starts
the container.

Network creation is idempotent. Container creation is not: a second provision
against an existing container fails, which keeps a running Phabricator from
being replaced by accident. Remove the container first to reprovision.`,
	Args: cobra.NoArgs,
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	detail := fmt.Sprintf("network %s, container %s", cfg.Network.Name, cfg.Container.Name)

	return recordRun(ctx, domain.RunKindProvision, detail, func(ctx context.Context) error {
		client, err := newDockerClient()
		if err != nil {
			return err
		}
		defer client.Close()

		networkID, created, err := client.EnsureNetwork(docker.NetworkSpec{
			Name:   cfg.Network.Name,
			Driver: cfg.Network.Driver,
			Subnet: cfg.Network.Subnet,
			Labels: map[string]string{docker.LabelManaged: "true"},
		})
		if err != nil {
			return err
		}
		if created {
			logger.Info("network created", "name", cfg.Network.Name, "id", networkID)
		} else {
			logger.Info("network already exists", "name", cfg.Network.Name, "id", networkID)
		}

		exists, err := client.ImageExists(cfg.Container.Image)
		if err != nil {
			return err
		}
		if !exists {
			logger.Info("pulling image", "image", cfg.Container.Image)
			if err := client.PullImage(cfg.Container.Image, docker.PullOptions{}); err != nil {
				return err
			}
		}

		containerCmd, err := command.Split(cfg.Container.Command)
		if err != nil {
			return fmt.Errorf("parse container command: %w", err)
		}

		containerID, err := client.CreateContainer(docker.ContainerSpec{
			Name:    cfg.Container.Name,
			Image:   cfg.Container.Image,
			Command: containerCmd,
			Labels: map[string]string{
				docker.LabelManaged: "true",
				docker.LabelApp:     "phabricator",
			},
			Ports: []docker.PortBinding{
				{
					ContainerPort: cfg.Container.Port,
					HostPort:      cfg.Container.HostPort,
					Protocol:      "tcp",
				},
			},
			Network:       cfg.Network.Name,
			IPv4Address:   cfg.Container.IPv4Address,
			RestartPolicy: docker.RestartPolicy{Name: cfg.Container.RestartPolicy},
		})
		if err != nil {
			return err
		}
		logger.Info("container created", "name", cfg.Container.Name, "id", containerID)

		if err := client.StartContainer(containerID); err != nil {
			return err
		}
		logger.Info("container started", "name", cfg.Container.Name)
		return nil
	})
}
