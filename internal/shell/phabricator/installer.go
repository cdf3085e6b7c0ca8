// Package phabricator installs and manages a Phabricator instance on an
// Ubuntu target. The installer registers its MariaDB, Apache, and PHP
// requirements up front, then drives the full install sequence through the
// service managers.
package phabricator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/phabops/phabctl/internal/core/confgen"
	"github.com/phabops/phabctl/internal/core/domain"
	"github.com/phabops/phabctl/internal/core/secret"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/services"
	"github.com/phabops/phabctl/internal/shell/system"
)

// ErrUpgradeNotSupported is returned by Upgrade until an upgrade path that
// handles storage migrations safely exists.
var ErrUpgradeNotSupported = errors.New("upgrading Phabricator is not supported yet")

// Option IDs recognized in the options file.
const (
	OptionAppID          = "app.id"
	OptionDomainBase     = "app.domain-base"
	OptionDomainFiles    = "app.domain-files"
	OptionMySQLUser      = "mysql.user.name"
	OptionMySQLPassword  = "mysql.user.password"
	OptionDaemonUserName = "app.daemon.user.name"
	OptionSiteID         = "app.site.id"
)

// prereqPackages are the tools Phabricator shells out to at runtime.
var prereqPackages = []string{
	"git",
	"mercurial",
	"subversion",
	"python-pygments",
	"imagemagick",
}

type component struct {
	name string
	path string
}

// =============================================================================
// Installer
// =============================================================================

// Installer holds everything needed to install and manage one Phabricator
// application on a target system.
type Installer struct {
	mysql     *services.MariaDB
	webserver *services.Apache2
	php       *services.PHP
	system    *system.Ubuntu
	shell     command.Shell
	logger    *slog.Logger

	options *domain.Options

	appPath         string
	phabricatorPath string
	webrootPath     string
	arcanistPath    string
	libphutilPath   string
	components      []component

	daemonStarted bool
}

// NewInstaller creates an installer over the given system. Missing options
// are filled with defaults; previously saved values, including the generated
// database password, are kept as-is so reruns are stable.
func NewInstaller(sys *system.Ubuntu, options *domain.Options, logger *slog.Logger) (*Installer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options == nil {
		options = domain.NewOptions()
	}

	// Shall be unique among all applications we support.
	options.SetDefault(OptionAppID, "phabricator")
	appID, err := options.Get(OptionAppID)
	if err != nil {
		return nil, err
	}

	options.SetDefault(OptionDomainBase, "dev.local")
	options.SetDefault(OptionDomainFiles, "devfiles.local")
	options.SetDefault(OptionMySQLUser, appID+"_mysql_user")
	options.SetDefault(OptionDaemonUserName, appID+"_user")
	options.SetDefault(OptionSiteID, appID+"_site")

	if !options.Has(OptionMySQLPassword) {
		password, err := secret.GeneratePassword(secret.DefaultPasswordLength)
		if err != nil {
			return nil, fmt.Errorf("generate MySQL password: %w", err)
		}
		options.Set(OptionMySQLPassword, password)
	}

	appPath := path.Join("/opt", appID)
	phabricatorPath := path.Join(appPath, "phabricator")

	inst := &Installer{
		mysql:     services.NewMariaDB(sys, logger),
		webserver: services.NewApache2(sys, logger),
		php:       services.NewPHP(sys, logger),
		system:    sys,
		shell:     sys.Shell(),
		logger:    logger,
		options:   options,

		appPath:         appPath,
		phabricatorPath: phabricatorPath,
		webrootPath:     path.Join(phabricatorPath, "webroot"),
		arcanistPath:    path.Join(appPath, "arcanist"),
		libphutilPath:   path.Join(appPath, "libphutil"),
	}
	inst.components = []component{
		{"libphutil", inst.libphutilPath},
		{"arcanist", inst.arcanistPath},
		{"phabricator", inst.phabricatorPath},
	}

	if err := inst.registerServiceConfig(); err != nil {
		return nil, err
	}
	return inst, nil
}

// registerServiceConfig contributes this application's settings to the
// service managers before any of them installs.
func (p *Installer) registerServiceConfig() error {
	err := p.mysql.Configure(map[string]string{
		"sql_mode": "STRICT_ALL_TABLES",

		// InnoDB buffer pool. Phabricator complains below 256M; the
		// related cache structures need about 10% on top of this value,
		// and mysqld refuses to start when it cannot allocate it.
		"innodb_buffer_pool_size": "1600M",

		"max_allowed_packet": "33554432",
	})
	if err != nil {
		return err
	}

	site := confgen.ApacheSite{
		Hosts: []confgen.VirtualHost{
			{
				Address: "*",
				Directives: []confgen.Directive{
					{Name: "ServerName", Value: p.opt(OptionDomainBase)},
					{Name: "DocumentRoot", Value: p.webrootPath},
					{Name: "RewriteEngine", Value: "on"},
					{Name: "RewriteRule", Value: "^(.*)$ /index.php?__path__=$1 [B,L,QSA]"},
				},
			},
		},
		Directories: []confgen.Directory{
			{
				Path: p.webrootPath,
				Directives: []confgen.Directive{
					{Name: "Require", Value: "all granted"},
				},
			},
		},
	}
	if err := p.webserver.AddSite(p.opt(OptionSiteID), site); err != nil {
		return err
	}

	return p.php.Configure(map[string]string{
		"date.timezone": "'Etc/UTC'",
		"post_max_size": "32M",

		// OPcache should never revalidate code.
		"opcache.validate_timestamps": "0",
	})
}

// opt returns an option value. All IDs used here have defaults set in
// NewInstaller, so lookups cannot miss.
func (p *Installer) opt(id string) string {
	value, _ := p.options.Get(id)
	return value
}

// Options exposes the resolved options, including generated values.
func (p *Installer) Options() *domain.Options {
	return p.options
}

func (p *Installer) runConfigSet(ctx context.Context, id, value string) error {
	configPath := path.Join(p.phabricatorPath, "bin", "config")
	if _, err := p.shell.Run(ctx, []string{configPath, "set", id, value}, command.RunOptions{}); err != nil {
		return fmt.Errorf("set Phabricator config %s: %w", id, err)
	}
	return nil
}

func (p *Installer) runStorage(ctx context.Context, args ...string) error {
	storagePath := path.Join(p.phabricatorPath, "bin", "storage")
	_, err := p.shell.Run(ctx, append([]string{storagePath}, args...), command.RunOptions{})
	return err
}

// createDaemonUser creates the user owning Phabricator's files. Exit code 9
// means the user already exists and is fine on a rerun.
func (p *Installer) createDaemonUser(ctx context.Context) error {
	name := p.opt(OptionDaemonUserName)
	result, err := p.shell.Run(ctx,
		[]string{"useradd", "-m", name, "-s", "/bin/bash"},
		command.RunOptions{MayFail: true})
	if err != nil {
		return err
	}
	if result.Status != 0 && result.Status != 9 {
		return fmt.Errorf("%w: useradd %s: exit status %d", command.ErrCommandFailed, name, result.Status)
	}
	return nil
}

// retrieveComponents clones libphutil, arcanist, and phabricator, or pulls
// them when already present.
func (p *Installer) retrieveComponents(ctx context.Context) error {
	for _, c := range p.components {
		exists, err := p.shell.FileExists(ctx, c.path)
		if err != nil {
			return err
		}

		var script string
		if exists {
			script = fmt.Sprintf("cd %s && git pull", c.path)
		} else {
			dir := path.Dir(c.path)
			script = fmt.Sprintf("mkdir -p %s && cd %s && git clone https://github.com/phacility/%s.git", dir, dir, c.name)
		}
		if _, err := p.shell.Run(ctx, []string{"sh", "-c", script}, command.RunOptions{}); err != nil {
			return fmt.Errorf("retrieve component %s: %w", c.name, err)
		}
	}
	return nil
}

// Install performs the full installation and leaves everything running.
func (p *Installer) Install(ctx context.Context) error {
	if err := p.system.Upgrade(ctx); err != nil {
		return err
	}

	if err := p.mysql.Install(ctx); err != nil {
		return err
	}

	p.logger.Info("creating the Phabricator MySQL user")
	err := p.mysql.AddUser(ctx,
		p.opt(OptionMySQLUser),
		p.opt(OptionMySQLPassword),
		"SELECT, INSERT, UPDATE, DELETE, EXECUTE, SHOW VIEW",
		"`phabricator\\_%`.*")
	if err != nil {
		return err
	}

	if err := p.webserver.Install(ctx); err != nil {
		return err
	}
	if err := p.php.Install(ctx); err != nil {
		return err
	}

	p.logger.Info("creating Phabricator application user")
	if err := p.createDaemonUser(ctx); err != nil {
		return err
	}

	p.logger.Info("installing packages Phabricator relies on")
	if err := p.system.InstallPackages(ctx, prereqPackages...); err != nil {
		return err
	}

	p.logger.Info("retrieving Phabricator components")
	if err := p.retrieveComponents(ctx); err != nil {
		return err
	}

	p.logger.Info("setting Phabricator MySQL user credentials")
	if err := p.runConfigSet(ctx, "mysql.user", p.opt(OptionMySQLUser)); err != nil {
		return err
	}
	if err := p.runConfigSet(ctx, "mysql.pass", p.opt(OptionMySQLPassword)); err != nil {
		return err
	}

	p.logger.Info("configuring Phabricator base and file URIs")
	if err := p.runConfigSet(ctx, "phabricator.base-uri", fmt.Sprintf("http://%s/", p.opt(OptionDomainBase))); err != nil {
		return err
	}
	if err := p.runConfigSet(ctx, "security.alternate-file-domain", fmt.Sprintf("http://%s/", p.opt(OptionDomainFiles))); err != nil {
		return err
	}

	if err := p.runConfigSet(ctx, "pygments.enabled", "true"); err != nil {
		return err
	}
	if err := p.runConfigSet(ctx, "metamta.mail-adapter", "PhabricatorMailImplementationPHPMailerAdapter"); err != nil {
		return err
	}

	p.logger.Info("setting up Phabricator repositories directory")
	if _, err := p.shell.Run(ctx, []string{"mkdir", "-p", "/opt/repos"}, command.RunOptions{}); err != nil {
		return err
	}
	if err := p.runConfigSet(ctx, "repository.default-local-path", "/opt/repos"); err != nil {
		return err
	}

	p.logger.Info("setting up Phabricator files directory")
	if _, err := p.shell.Run(ctx, []string{"mkdir", "-p", "/opt/files"}, command.RunOptions{}); err != nil {
		return err
	}
	if _, err := p.shell.Run(ctx, []string{"chown", "-R", "www-data:www-data", "/opt/files"}, command.RunOptions{}); err != nil {
		return err
	}
	if err := p.runConfigSet(ctx, "storage.local-disk.path", "/opt/files"); err != nil {
		return err
	}

	p.logger.Info("setting up the MySQL schema")
	// TODO: set a password for the root MySQL user and pass it here.
	if err := p.runStorage(ctx, "upgrade", "--force", "--user", "root"); err != nil {
		return fmt.Errorf("upgrade Phabricator storage: %w", err)
	}

	return p.Restart(ctx)
}

// Upgrade is not implemented. The documented procedure stops daemons,
// pulls all components, and migrates storage; automating it safely is a
// separate piece of work.
func (p *Installer) Upgrade(ctx context.Context) error {
	return ErrUpgradeNotSupported
}

func (p *Installer) manageDaemon(ctx context.Context, action string) error {
	phdPath := path.Join(p.phabricatorPath, "bin", "phd")
	if _, err := p.shell.Run(ctx, []string{phdPath, action}, command.RunOptions{}); err != nil {
		return fmt.Errorf("phd %s: %w", action, err)
	}
	return nil
}

func (p *Installer) restartDaemon(ctx context.Context) error {
	if err := p.manageDaemon(ctx, "restart"); err != nil {
		return err
	}
	p.daemonStarted = true
	return nil
}

func (p *Installer) stopDaemon(ctx context.Context) error {
	if !p.daemonStarted {
		return nil
	}
	if err := p.manageDaemon(ctx, "stop"); err != nil {
		return err
	}
	p.daemonStarted = false
	return nil
}

// Start brings up the database, daemons, and webserver, in that order.
func (p *Installer) Start(ctx context.Context) error {
	if err := p.mysql.Start(ctx); err != nil {
		return err
	}
	if err := p.restartDaemon(ctx); err != nil {
		return err
	}
	return p.webserver.Start(ctx)
}

// Restart restarts everything in dependency order.
func (p *Installer) Restart(ctx context.Context) error {
	if err := p.mysql.Restart(ctx); err != nil {
		return err
	}
	if err := p.restartDaemon(ctx); err != nil {
		return err
	}
	return p.webserver.Restart(ctx)
}

// Stop tears everything down in reverse order.
func (p *Installer) Stop(ctx context.Context) error {
	if err := p.webserver.Stop(ctx); err != nil {
		return err
	}
	if err := p.stopDaemon(ctx); err != nil {
		return err
	}
	return p.mysql.Stop(ctx)
}
