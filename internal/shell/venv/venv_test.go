package venv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/command/commandtest"
)

func TestEnsure_CreatesWhenMissing(t *testing.T) {
	shell := commandtest.NewFakeShell()
	manager := NewManager(shell, ".venv", "", nil)

	created, err := manager.Ensure(context.Background())
	require.NoError(t, err)
	assert.True(t, created)

	require.Len(t, shell.Calls, 1)
	assert.Equal(t, []string{"python3", "-m", "venv", ".venv"}, shell.Calls[0].Argv)
}

func TestEnsure_SkipsWhenPresent(t *testing.T) {
	shell := commandtest.NewFakeShell()
	shell.Files[filepath.Join(".venv", "pyvenv.cfg")] = []byte("home = /usr/bin")
	manager := NewManager(shell, ".venv", "", nil)

	created, err := manager.Ensure(context.Background())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Empty(t, shell.Calls)
}

func TestInstallPackages_PreservesOrder(t *testing.T) {
	shell := commandtest.NewFakeShell()
	manager := NewManager(shell, ".venv", "", nil)

	require.NoError(t, manager.InstallPackages(context.Background(), DefaultPackages))

	lines := shell.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, ".venv/bin/pip install wheel", lines[0])
	assert.Equal(t, ".venv/bin/pip install paramiko", lines[1])
}

func TestInstallPackages_StopsOnFailure(t *testing.T) {
	shell := commandtest.NewFakeShell()
	shell.Script(".venv/bin/pip install wheel", command.Result{Status: 1})
	manager := NewManager(shell, ".venv", "", nil)

	err := manager.InstallPackages(context.Background(), DefaultPackages)
	require.Error(t, err)
	assert.Len(t, shell.Calls, 1)
}

func TestRunScript_ForwardsArgs(t *testing.T) {
	shell := commandtest.NewFakeShell()
	manager := NewManager(shell, ".venv", "", nil)

	_, err := manager.RunScript(context.Background(), "deploy.py", []string{"phabricator.install()"})
	require.NoError(t, err)

	require.Len(t, shell.Calls, 1)
	assert.Equal(t, []string{".venv/bin/python3", "deploy.py", "phabricator.install()"}, shell.Calls[0].Argv)
}

func TestRunScript_SetsVenvEnvironment(t *testing.T) {
	shell := commandtest.NewFakeShell()
	manager := NewManager(shell, ".venv", "", nil)

	_, err := manager.RunScript(context.Background(), "deploy.py", nil)
	require.NoError(t, err)

	require.Len(t, shell.Calls, 1)
	env := shell.Calls[0].Opts.Env
	require.Len(t, env, 2)
	assert.Contains(t, env[0], "VIRTUAL_ENV=")
	assert.Contains(t, env[1], "PATH=")
	assert.Contains(t, env[1], filepath.Join(".venv", "bin"))
}

func TestPythonAndPipPaths(t *testing.T) {
	manager := NewManager(commandtest.NewFakeShell(), "/srv/deploy/.venv", "python3.8", nil)
	assert.Equal(t, "/srv/deploy/.venv/bin/python3", manager.Python())
	assert.Equal(t, "/srv/deploy/.venv/bin/pip", manager.Pip())
}
