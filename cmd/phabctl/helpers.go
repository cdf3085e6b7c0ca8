package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/docker"
	"github.com/phabops/phabctl/internal/shell/remote"
	"github.com/phabops/phabctl/internal/shell/store"
	"github.com/phabops/phabctl/internal/shell/venv"
)

// openStore opens the run history database, creating its directory if needed.
func openStore() (store.Store, error) {
	dir := filepath.Dir(cfg.Database.DSN)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}
	return store.NewSQLiteStore(cfg.Database.DSN)
}

// recordRun persists a run record around fn: pending before, running while it
// executes, and succeeded or failed with the error afterwards.
func recordRun(ctx context.Context, kind domain.RunKind, detail string, fn func(context.Context) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run := domain.NewRun(kind, detail)
	if err := st.CreateRun(ctx, run); err != nil {
		return err
	}
	if err := run.Transition(domain.RunStatusRunning); err != nil {
		return err
	}
	if err := st.UpdateRun(ctx, run); err != nil {
		return err
	}

	logger.Info("run started", "run_id", run.ID, "kind", run.Kind)

	if runErr := fn(ctx); runErr != nil {
		run.Fail(runErr.Error())
		if err := st.UpdateRun(ctx, run); err != nil {
			logger.Error("failed to record run failure", "run_id", run.ID, "error", err)
		}
		logger.Error("run failed", "run_id", run.ID, "error", runErr)
		return runErr
	}

	if err := run.Transition(domain.RunStatusSucceeded); err != nil {
		return err
	}
	if err := st.UpdateRun(ctx, run); err != nil {
		return err
	}
	logger.Info("run succeeded", "run_id", run.ID, "duration", run.Duration())
	return nil
}

// newDockerClient connects to the Docker daemon from config.
func newDockerClient() (*docker.DockerClient, error) {
	client, err := docker.NewDockerClient(cfg.Docker.Host)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// newVenvManager builds the virtual environment manager over the local shell.
func newVenvManager() *venv.Manager {
	shell := command.NewLocalShell(logger)
	return venv.NewManager(shell, cfg.Venv.Dir, cfg.Venv.Python, logger)
}

// newTargetShell builds the shell the installer runs through. The default
// target is the provisioned container; "ssh" drives a remote host instead.
func newTargetShell(target string) (command.Shell, func(), error) {
	switch target {
	case "", "container":
		client, err := newDockerClient()
		if err != nil {
			return nil, nil, err
		}
		shell := docker.NewContainerShell(client, cfg.Container.Name, logger)
		return shell, func() { client.Close() }, nil

	case "ssh":
		if cfg.SSH.Host == "" {
			return nil, nil, fmt.Errorf("ssh target requires ssh.host to be configured")
		}
		key, err := os.ReadFile(cfg.SSH.KeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("read SSH key %s: %w", cfg.SSH.KeyPath, err)
		}
		shell, err := remote.NewSSHShell(remote.Config{
			Host:       cfg.SSH.Host,
			Port:       cfg.SSH.Port,
			User:       cfg.SSH.User,
			PrivateKey: key,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return shell, func() { shell.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown setup target %q", target)
	}
}
