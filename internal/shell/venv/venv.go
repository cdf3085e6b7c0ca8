// Package venv manages a Python virtual environment for the legacy deploy
// script. Scripts run with the environment's interpreter so they see the
// packages installed here rather than the system ones.
package venv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/phabops/phabctl/internal/shell/command"
)

// DefaultPackages are installed on bootstrap. Order matters: wheel must be
// present before paramiko so its native parts build from a wheel-capable pip.
var DefaultPackages = []string{"wheel", "paramiko"}

// =============================================================================
// Manager
// =============================================================================

// Manager creates and uses a virtual environment rooted at Dir.
type Manager struct {
	shell  command.Shell
	dir    string
	python string // base interpreter used to create the environment
	logger *slog.Logger
}

// NewManager creates a manager for the environment at dir. The python
// argument names the base interpreter and defaults to python3.
func NewManager(shell command.Shell, dir, python string, logger *slog.Logger) *Manager {
	if python == "" {
		python = "python3"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		shell:  shell,
		dir:    dir,
		python: python,
		logger: logger,
	}
}

// Dir returns the environment root.
func (m *Manager) Dir() string {
	return m.dir
}

// Python returns the path of the environment's interpreter.
func (m *Manager) Python() string {
	return filepath.Join(m.dir, "bin", "python3")
}

// Pip returns the path of the environment's pip.
func (m *Manager) Pip() string {
	return filepath.Join(m.dir, "bin", "pip")
}

// Exists reports whether the environment has been created.
func (m *Manager) Exists(ctx context.Context) (bool, error) {
	return m.shell.FileExists(ctx, filepath.Join(m.dir, "pyvenv.cfg"))
}

// Ensure creates the environment if it does not exist. It reports whether a
// new environment was created.
func (m *Manager) Ensure(ctx context.Context) (bool, error) {
	exists, err := m.Exists(ctx)
	if err != nil {
		return false, err
	}
	if exists {
		m.logger.Debug("virtual environment already exists", "dir", m.dir)
		return false, nil
	}

	m.logger.Info("creating virtual environment", "dir", m.dir, "python", m.python)
	if _, err := m.shell.Run(ctx, []string{m.python, "-m", "venv", m.dir}, command.RunOptions{}); err != nil {
		return false, fmt.Errorf("create virtual environment at %s: %w", m.dir, err)
	}
	return true, nil
}

// InstallPackages installs packages one at a time, preserving order.
func (m *Manager) InstallPackages(ctx context.Context, packages []string) error {
	for _, pkg := range packages {
		m.logger.Info("installing package", "package", pkg)
		if _, err := m.shell.Run(ctx, []string{m.Pip(), "install", pkg}, command.RunOptions{}); err != nil {
			return fmt.Errorf("install package %s: %w", pkg, err)
		}
	}
	return nil
}

// scriptEnv returns the environment overrides an activated venv would set.
func (m *Manager) scriptEnv() []string {
	absDir, err := filepath.Abs(m.dir)
	if err != nil {
		absDir = m.dir
	}
	binDir := filepath.Join(absDir, "bin")
	return []string{
		"VIRTUAL_ENV=" + absDir,
		"PATH=" + binDir + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
}

// RunScript runs a Python script with the environment's interpreter, passing
// args through verbatim.
func (m *Manager) RunScript(ctx context.Context, script string, args []string) (command.Result, error) {
	argv := append([]string{m.Python(), script}, args...)
	m.logger.Debug("running script", "script", script, "args", strings.Join(args, " "))
	return m.shell.Run(ctx, argv, command.RunOptions{Env: m.scriptEnv()})
}
