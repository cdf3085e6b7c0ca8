package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phabops/phabctl/internal/core/confgen"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/system"
)

const mariadbConfigPath = "/etc/mysql/mariadb.conf.d/99-custom_config.cnf"

// =============================================================================
// MariaDB
// =============================================================================

// MariaDB installs and manages a MariaDB server.
type MariaDB struct {
	system *system.Ubuntu
	shell  command.Shell
	logger *slog.Logger

	config map[string]string

	installed bool
	started   bool
}

// NewMariaDB creates a MariaDB manager on the given system.
func NewMariaDB(sys *system.Ubuntu, logger *slog.Logger) *MariaDB {
	if logger == nil {
		logger = slog.Default()
	}
	return &MariaDB{
		system: sys,
		shell:  sys.Shell(),
		logger: logger,
		config: make(map[string]string),
	}
}

// Configure registers mysqld options to be written at install time. Options
// must be registered before Install; two callers requesting different values
// for the same option is an error.
func (m *MariaDB) Configure(config map[string]string) error {
	if m.installed {
		return fmt.Errorf("%w: MariaDB must be configured before installing", ErrAlreadyInstalled)
	}

	for option, value := range config {
		existing, ok := m.config[option]
		if !ok {
			m.config[option] = value
			continue
		}
		if existing != value {
			return fmt.Errorf("%w: MariaDB option %s: %s and %s", ErrConflictingOption, option, existing, value)
		}
	}
	return nil
}

func (m *MariaDB) installConfigFile(ctx context.Context) error {
	content := confgen.RenderMariaDBConfig(m.config)
	return m.shell.WriteFile(ctx, mariadbConfigPath, []byte(content))
}

// Install installs the server and writes the collected configuration.
func (m *MariaDB) Install(ctx context.Context) error {
	m.logger.Info("installing MariaDB")

	if err := m.system.Upgrade(ctx); err != nil {
		return err
	}
	if err := m.system.InstallPackages(ctx, "mariadb-server"); err != nil {
		return err
	}
	if err := m.installConfigFile(ctx); err != nil {
		return fmt.Errorf("install MariaDB config file: %w", err)
	}

	m.installed = true
	return nil
}

// execute runs SQL statements as root through the mysql client.
func (m *MariaDB) execute(ctx context.Context, statements string, mayFail bool) error {
	// The daemon must be running for the client to connect.
	if err := m.Start(ctx); err != nil {
		return err
	}

	_, err := m.shell.Run(ctx,
		[]string{"mysql", "-u", "root", "--execute", statements},
		command.RunOptions{MayFail: mayFail})
	return err
}

// AddUser creates a database user with the given privileges, replacing any
// existing user of that name.
func (m *MariaDB) AddUser(ctx context.Context, user, password, privileges, objects string) error {
	// Drop an existing user with the same name, if any. The failure mode
	// where the user does not exist is indistinguishable from other errors
	// without parsing client output, so the drop may fail.
	drop := fmt.Sprintf("DROP USER '%s'@'localhost'; ", user)
	if err := m.execute(ctx, drop, true); err != nil {
		return err
	}

	create := fmt.Sprintf(
		"CREATE USER '%s'@'localhost' IDENTIFIED BY '%s'; "+
			"GRANT %s ON %s TO '%s'@'localhost';",
		user, password, privileges, objects, user)
	if err := m.execute(ctx, create, false); err != nil {
		return fmt.Errorf("create MariaDB user %s: %w", user, err)
	}
	return nil
}

// Start starts the daemon if not already started.
func (m *MariaDB) Start(ctx context.Context) error {
	if m.started {
		return nil
	}
	if err := m.system.Service(ctx, "mysql", "start"); err != nil {
		return err
	}
	m.started = true
	return nil
}

// Restart restarts the daemon.
func (m *MariaDB) Restart(ctx context.Context) error {
	if err := m.system.Service(ctx, "mysql", "restart"); err != nil {
		return err
	}
	m.started = true
	return nil
}

// Stop stops the daemon if started.
func (m *MariaDB) Stop(ctx context.Context) error {
	if !m.started {
		return nil
	}
	if err := m.system.Service(ctx, "mysql", "stop"); err != nil {
		return err
	}
	m.started = false
	return nil
}
