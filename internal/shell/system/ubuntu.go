// Package system wraps OS-level operations on an Ubuntu target: package
// management through apt and service control. All operations go through a
// command.Shell so the same code drives local, container, and SSH targets.
package system

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phabops/phabctl/internal/shell/command"
)

// =============================================================================
// Ubuntu
// =============================================================================

// Ubuntu manages packages and services on an Ubuntu system. Update and
// Upgrade results are cached for the lifetime of the value so a session with
// many installs hits the package index once.
type Ubuntu struct {
	shell  command.Shell
	logger *slog.Logger

	updated  bool
	upgraded bool
}

// NewUbuntu creates an Ubuntu system layer over the given shell.
func NewUbuntu(shell command.Shell, logger *slog.Logger) *Ubuntu {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ubuntu{
		shell:  shell,
		logger: logger,
	}
}

// aptGet builds an apt-get argv. DEBIAN_FRONTEND suppresses the interactive
// configuration prompts that would otherwise hang an unattended install.
func aptGet(args ...string) []string {
	argv := []string{"env", "DEBIAN_FRONTEND=noninteractive", "apt-get", "-y"}
	return append(argv, args...)
}

// Update refreshes the package index. Repeated calls are no-ops.
func (u *Ubuntu) Update(ctx context.Context) error {
	if u.updated {
		return nil
	}

	u.logger.Info("updating package index")
	if _, err := u.shell.Run(ctx, aptGet("update"), command.RunOptions{}); err != nil {
		return fmt.Errorf("apt-get update: %w", err)
	}
	u.updated = true
	return nil
}

// Upgrade upgrades installed packages, updating the index first. Repeated
// calls are no-ops.
func (u *Ubuntu) Upgrade(ctx context.Context) error {
	if u.upgraded {
		return nil
	}
	if err := u.Update(ctx); err != nil {
		return err
	}

	u.logger.Info("upgrading installed packages")
	if _, err := u.shell.Run(ctx, aptGet("upgrade"), command.RunOptions{}); err != nil {
		return fmt.Errorf("apt-get upgrade: %w", err)
	}
	u.upgraded = true
	return nil
}

// InstallPackages installs the given packages in one apt-get invocation.
func (u *Ubuntu) InstallPackages(ctx context.Context, packages ...string) error {
	if len(packages) == 0 {
		return nil
	}
	if err := u.Update(ctx); err != nil {
		return err
	}

	u.logger.Info("installing packages", "packages", packages)
	argv := append(aptGet("install"), packages...)
	if _, err := u.shell.Run(ctx, argv, command.RunOptions{}); err != nil {
		return fmt.Errorf("install packages %v: %w", packages, err)
	}
	return nil
}

// Service runs a service action such as start, stop, or restart.
func (u *Ubuntu) Service(ctx context.Context, name, action string) error {
	u.logger.Info("service control", "service", name, "action", action)
	if _, err := u.shell.Run(ctx, []string{"service", name, action}, command.RunOptions{}); err != nil {
		return fmt.Errorf("service %s %s: %w", name, action, err)
	}
	return nil
}

// Shell exposes the underlying shell for callers that need raw commands.
func (u *Ubuntu) Shell() command.Shell {
	return u.shell
}
