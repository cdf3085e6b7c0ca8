package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"

	"github.com/phabops/phabctl/internal/core/confgen"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/system"
)

const apacheSitesAvailableDir = "/etc/apache2/sites-available"

// =============================================================================
// Apache2
// =============================================================================

// Apache2 installs and manages an Apache web server. Sites are registered
// before install and written out as part of it.
type Apache2 struct {
	system *system.Ubuntu
	shell  command.Shell
	logger *slog.Logger

	sites map[string]confgen.ApacheSite

	installed bool
	started   bool
}

// NewApache2 creates an Apache2 manager on the given system.
func NewApache2(sys *system.Ubuntu, logger *slog.Logger) *Apache2 {
	if logger == nil {
		logger = slog.Default()
	}
	return &Apache2{
		system: sys,
		shell:  sys.Shell(),
		logger: logger,
		sites:  make(map[string]confgen.ApacheSite),
	}
}

// AddSite registers a site to enable at install time.
func (a *Apache2) AddSite(id string, site confgen.ApacheSite) error {
	if a.installed {
		return fmt.Errorf("%w: cannot add site %q after install", ErrAlreadyInstalled, id)
	}
	if _, ok := a.sites[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateSite, id)
	}
	a.sites[id] = site
	return nil
}

func (a *Apache2) siteIDs() []string {
	ids := make([]string, 0, len(a.sites))
	for id := range a.sites {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (a *Apache2) installSiteConfigFile(ctx context.Context, id string, site confgen.ApacheSite) error {
	configPath := path.Join(apacheSitesAvailableDir, id+".conf")
	return a.shell.WriteFile(ctx, configPath, []byte(site.Render()))
}

func (a *Apache2) enableSite(ctx context.Context, id string) error {
	_, err := a.shell.Run(ctx, []string{"a2ensite", id}, command.RunOptions{})
	return err
}

func (a *Apache2) disableSite(ctx context.Context, id string) error {
	_, err := a.shell.Run(ctx, []string{"a2dissite", id}, command.RunOptions{})
	return err
}

// Install installs the server, writes registered sites, disables the stock
// default site, and enables the registered ones.
func (a *Apache2) Install(ctx context.Context) error {
	a.logger.Info("installing Apache2")

	if err := a.system.Upgrade(ctx); err != nil {
		return err
	}
	if err := a.system.InstallPackages(ctx, "apache2", "libapache2-mod-php"); err != nil {
		return err
	}

	if _, err := a.shell.Run(ctx, []string{"a2enmod", "rewrite"}, command.RunOptions{}); err != nil {
		return fmt.Errorf("enable rewrite module: %w", err)
	}

	for _, id := range a.siteIDs() {
		if err := a.installSiteConfigFile(ctx, id, a.sites[id]); err != nil {
			return fmt.Errorf("install site config %q: %w", id, err)
		}
	}

	if err := a.disableSite(ctx, "000-default"); err != nil {
		return fmt.Errorf("disable default site: %w", err)
	}

	for _, id := range a.siteIDs() {
		if err := a.enableSite(ctx, id); err != nil {
			return fmt.Errorf("enable site %q: %w", id, err)
		}
	}

	a.installed = true
	return nil
}

// Start starts the server if not already started.
func (a *Apache2) Start(ctx context.Context) error {
	if a.started {
		return nil
	}
	if err := a.system.Service(ctx, "apache2", "start"); err != nil {
		return err
	}
	a.started = true
	return nil
}

// Restart restarts the server.
func (a *Apache2) Restart(ctx context.Context) error {
	if err := a.system.Service(ctx, "apache2", "restart"); err != nil {
		return err
	}
	a.started = true
	return nil
}

// Stop stops the server if started.
func (a *Apache2) Stop(ctx context.Context) error {
	if !a.started {
		return nil
	}
	if err := a.system.Service(ctx, "apache2", "stop"); err != nil {
		return err
	}
	a.started = false
	return nil
}
