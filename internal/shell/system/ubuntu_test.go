package system

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phabops/phabctl/internal/shell/command/commandtest"
)

func TestUpdate_CachedWithinSession(t *testing.T) {
	shell := commandtest.NewFakeShell()
	ubuntu := NewUbuntu(shell, nil)
	ctx := context.Background()

	require.NoError(t, ubuntu.Update(ctx))
	require.NoError(t, ubuntu.Update(ctx))

	lines := shell.CommandLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "env DEBIAN_FRONTEND=noninteractive apt-get -y update", lines[0])
}

func TestUpgrade_RunsUpdateFirst(t *testing.T) {
	shell := commandtest.NewFakeShell()
	ubuntu := NewUbuntu(shell, nil)
	ctx := context.Background()

	require.NoError(t, ubuntu.Upgrade(ctx))
	require.NoError(t, ubuntu.Upgrade(ctx))

	lines := shell.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "env DEBIAN_FRONTEND=noninteractive apt-get -y update", lines[0])
	assert.Equal(t, "env DEBIAN_FRONTEND=noninteractive apt-get -y upgrade", lines[1])
}

func TestInstallPackages(t *testing.T) {
	shell := commandtest.NewFakeShell()
	ubuntu := NewUbuntu(shell, nil)
	ctx := context.Background()

	require.NoError(t, ubuntu.InstallPackages(ctx, "mariadb-server", "mariadb-client"))

	lines := shell.CommandLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "env DEBIAN_FRONTEND=noninteractive apt-get -y install mariadb-server mariadb-client", lines[1])
}

func TestInstallPackages_Empty(t *testing.T) {
	shell := commandtest.NewFakeShell()
	ubuntu := NewUbuntu(shell, nil)

	require.NoError(t, ubuntu.InstallPackages(context.Background()))
	assert.Empty(t, shell.Calls)
}

func TestService(t *testing.T) {
	shell := commandtest.NewFakeShell()
	ubuntu := NewUbuntu(shell, nil)

	require.NoError(t, ubuntu.Service(context.Background(), "apache2", "restart"))

	lines := shell.CommandLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "service apache2 restart", lines[0])
}
