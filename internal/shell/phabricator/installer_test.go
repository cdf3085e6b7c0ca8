package phabricator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/command/commandtest"
	"github.com/phabops/phabctl/internal/shell/system"
)

func newTestInstaller(t *testing.T, options *domain.Options) (*Installer, *commandtest.FakeShell) {
	t.Helper()
	shell := commandtest.NewFakeShell()
	inst, err := NewInstaller(system.NewUbuntu(shell, nil), options, nil)
	require.NoError(t, err)
	return inst, shell
}

func TestNewInstaller_Defaults(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)
	options := inst.Options()

	assert.Equal(t, "phabricator", inst.opt(OptionAppID))
	assert.Equal(t, "dev.local", inst.opt(OptionDomainBase))
	assert.Equal(t, "devfiles.local", inst.opt(OptionDomainFiles))
	assert.Equal(t, "phabricator_mysql_user", inst.opt(OptionMySQLUser))
	assert.Equal(t, "phabricator_user", inst.opt(OptionDaemonUserName))
	assert.Equal(t, "phabricator_site", inst.opt(OptionSiteID))

	password := inst.opt(OptionMySQLPassword)
	assert.Len(t, password, 16)
	assert.True(t, options.Has(OptionMySQLPassword))
}

func TestNewInstaller_KeepsSavedPassword(t *testing.T) {
	options := domain.NewOptions()
	options.Set(OptionMySQLPassword, "saved.password.01")

	inst, _ := newTestInstaller(t, options)
	assert.Equal(t, "saved.password.01", inst.opt(OptionMySQLPassword))
}

func TestNewInstaller_CustomAppID(t *testing.T) {
	options := domain.NewOptions()
	options.Set(OptionAppID, "wiki")

	inst, _ := newTestInstaller(t, options)
	assert.Equal(t, "wiki_mysql_user", inst.opt(OptionMySQLUser))
	assert.Equal(t, "wiki_site", inst.opt(OptionSiteID))
	assert.Equal(t, "/opt/wiki/phabricator", inst.phabricatorPath)
}

func TestInstall_FullSequence(t *testing.T) {
	inst, shell := newTestInstaller(t, nil)

	require.NoError(t, inst.Install(context.Background()))
	lines := shell.CommandLines()

	// Packages go in through apt with the index refreshed once.
	updates := 0
	for _, line := range lines {
		if line == "env DEBIAN_FRONTEND=noninteractive apt-get -y update" {
			updates++
		}
	}
	assert.Equal(t, 1, updates)

	// The collected mysqld options land in the custom config fragment.
	content, ok := shell.Files["/etc/mysql/mariadb.conf.d/99-custom_config.cnf"]
	require.True(t, ok)
	assert.Contains(t, string(content), "sql_mode = STRICT_ALL_TABLES")
	assert.Contains(t, string(content), "innodb_buffer_pool_size = 1600M")

	// The site config carries the rewrite rule Phabricator routes through.
	site, ok := shell.Files["/etc/apache2/sites-available/phabricator_site.conf"]
	require.True(t, ok)
	assert.Contains(t, string(site), "RewriteRule ^(.*)$ /index.php?__path__=$1 [B,L,QSA]")
	assert.Contains(t, string(site), "DocumentRoot /opt/phabricator/phabricator/webroot")

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "git clone https://github.com/phacility/libphutil.git")
	assert.Contains(t, joined, "git clone https://github.com/phacility/arcanist.git")
	assert.Contains(t, joined, "git clone https://github.com/phacility/phabricator.git")
	assert.Contains(t, joined, "/opt/phabricator/phabricator/bin/config set mysql.user phabricator_mysql_user")
	assert.Contains(t, joined, "/opt/phabricator/phabricator/bin/config set phabricator.base-uri http://dev.local/")
	assert.Contains(t, joined, "/opt/phabricator/phabricator/bin/config set pygments.enabled true")
	assert.Contains(t, joined, "/opt/phabricator/phabricator/bin/storage upgrade --force --user root")

	// Everything is restarted at the end, database first, webserver last.
	last := lines[len(lines)-3:]
	assert.Equal(t, "service mysql restart", last[0])
	assert.Equal(t, "/opt/phabricator/phabricator/bin/phd restart", last[1])
	assert.Equal(t, "service apache2 restart", last[2])
}

func TestInstall_PullsExistingComponents(t *testing.T) {
	inst, shell := newTestInstaller(t, nil)
	shell.Files["/opt/phabricator/libphutil"] = []byte{}

	require.NoError(t, inst.Install(context.Background()))

	joined := strings.Join(shell.CommandLines(), "\n")
	assert.Contains(t, joined, "cd /opt/phabricator/libphutil && git pull")
	assert.NotContains(t, joined, "git clone https://github.com/phacility/libphutil.git")
	assert.Contains(t, joined, "git clone https://github.com/phacility/arcanist.git")
}

func TestCreateDaemonUser_ToleratesExistingUser(t *testing.T) {
	inst, shell := newTestInstaller(t, nil)
	shell.Script("useradd -m phabricator_user -s /bin/bash", command.Result{Status: 9})

	assert.NoError(t, inst.createDaemonUser(context.Background()))

	shell.Script("useradd -m phabricator_user -s /bin/bash", command.Result{Status: 1})
	err := inst.createDaemonUser(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, command.ErrCommandFailed))
}

func TestUpgrade_NotSupported(t *testing.T) {
	inst, _ := newTestInstaller(t, nil)

	err := inst.Upgrade(context.Background())
	assert.True(t, errors.Is(err, ErrUpgradeNotSupported))
}

func TestStartStop_Ordering(t *testing.T) {
	inst, shell := newTestInstaller(t, nil)
	ctx := context.Background()

	require.NoError(t, inst.Start(ctx))
	require.NoError(t, inst.Stop(ctx))

	assert.Equal(t, []string{
		"service mysql start",
		"/opt/phabricator/phabricator/bin/phd restart",
		"service apache2 start",
		"service apache2 stop",
		"/opt/phabricator/phabricator/bin/phd stop",
		"service mysql stop",
	}, shell.CommandLines())
}
