package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phabops/phabctl/internal/shell/command/commandtest"
	"github.com/phabops/phabctl/internal/shell/system"
)

func newTestMariaDB(t *testing.T) (*MariaDB, *commandtest.FakeShell) {
	t.Helper()
	shell := commandtest.NewFakeShell()
	return NewMariaDB(system.NewUbuntu(shell, nil), nil), shell
}

func TestMariaDB_ConfigureMergesOptions(t *testing.T) {
	mariadb, _ := newTestMariaDB(t)

	require.NoError(t, mariadb.Configure(map[string]string{"max_allowed_packet": "32M"}))
	require.NoError(t, mariadb.Configure(map[string]string{"max_allowed_packet": "32M", "sql_mode": "STRICT_ALL_TABLES"}))

	assert.Equal(t, "32M", mariadb.config["max_allowed_packet"])
	assert.Equal(t, "STRICT_ALL_TABLES", mariadb.config["sql_mode"])
}

func TestMariaDB_ConfigureConflict(t *testing.T) {
	mariadb, _ := newTestMariaDB(t)

	require.NoError(t, mariadb.Configure(map[string]string{"sql_mode": "STRICT_ALL_TABLES"}))
	err := mariadb.Configure(map[string]string{"sql_mode": "ANSI"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflictingOption))
}

func TestMariaDB_ConfigureAfterInstall(t *testing.T) {
	mariadb, _ := newTestMariaDB(t)
	require.NoError(t, mariadb.Install(context.Background()))

	err := mariadb.Configure(map[string]string{"sql_mode": "ANSI"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyInstalled))
}

func TestMariaDB_InstallWritesConfigFile(t *testing.T) {
	mariadb, shell := newTestMariaDB(t)
	require.NoError(t, mariadb.Configure(map[string]string{"max_allowed_packet": "32M"}))

	require.NoError(t, mariadb.Install(context.Background()))

	content, ok := shell.Files["/etc/mysql/mariadb.conf.d/99-custom_config.cnf"]
	require.True(t, ok)
	assert.Equal(t, "\n[mysqld]\nmax_allowed_packet = 32M\n", string(content))

	lines := shell.CommandLines()
	assert.Contains(t, lines, "env DEBIAN_FRONTEND=noninteractive apt-get -y install mariadb-server")
}

func TestMariaDB_AddUser(t *testing.T) {
	mariadb, shell := newTestMariaDB(t)

	err := mariadb.AddUser(context.Background(), "phabricator", "secret", "ALL PRIVILEGES", "*.*")
	require.NoError(t, err)

	lines := shell.CommandLines()
	require.Len(t, lines, 3)
	assert.Equal(t, "service mysql start", lines[0])
	assert.Contains(t, lines[1], "DROP USER 'phabricator'@'localhost'")
	assert.Contains(t, lines[2], "CREATE USER 'phabricator'@'localhost' IDENTIFIED BY 'secret'")
	assert.Contains(t, lines[2], "GRANT ALL PRIVILEGES ON *.* TO 'phabricator'@'localhost'")
}

func TestMariaDB_AddUser_DropMayFail(t *testing.T) {
	mariadb, shell := newTestMariaDB(t)

	// A failing drop (user does not exist yet) must not abort user creation.
	require.NoError(t, mariadb.AddUser(context.Background(), "phabricator", "secret", "ALL PRIVILEGES", "*.*"))

	require.Len(t, shell.Calls, 3)
	assert.True(t, shell.Calls[1].Opts.MayFail)
	assert.False(t, shell.Calls[2].Opts.MayFail)
}

func TestMariaDB_StartIsCached(t *testing.T) {
	mariadb, shell := newTestMariaDB(t)
	ctx := context.Background()

	require.NoError(t, mariadb.Start(ctx))
	require.NoError(t, mariadb.Start(ctx))

	lines := shell.CommandLines()
	require.Len(t, lines, 1)
	assert.Equal(t, "service mysql start", lines[0])
}

func TestMariaDB_StopOnlyWhenStarted(t *testing.T) {
	mariadb, shell := newTestMariaDB(t)
	ctx := context.Background()

	require.NoError(t, mariadb.Stop(ctx))
	assert.Empty(t, shell.Calls)

	require.NoError(t, mariadb.Start(ctx))
	require.NoError(t, mariadb.Stop(ctx))
	lines := shell.CommandLines()
	assert.Equal(t, "service mysql stop", lines[len(lines)-1])
}
