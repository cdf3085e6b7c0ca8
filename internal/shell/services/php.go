package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/phabops/phabctl/internal/core/confgen"
	"github.com/phabops/phabctl/internal/shell/command"
	"github.com/phabops/phabctl/internal/shell/system"
)

// phpConfigPath matches the PHP version Ubuntu 18.04 ships.
const phpConfigPath = "/etc/php/7.2/apache2/php.ini"

// phpPackages covers CLI use plus the extensions Phabricator needs.
var phpPackages = []string{
	"php",
	"php-mysql",
	"php-gd",
	"php-curl",
	"php-apcu",
	"php-cli",
	"php-json",
	"php-mbstring",
}

// =============================================================================
// PHP
// =============================================================================

// PHP installs the PHP runtime and applies php.ini overrides.
type PHP struct {
	system *system.Ubuntu
	shell  command.Shell
	logger *slog.Logger

	config map[string]string

	installed bool
}

// NewPHP creates a PHP manager on the given system.
func NewPHP(sys *system.Ubuntu, logger *slog.Logger) *PHP {
	if logger == nil {
		logger = slog.Default()
	}
	return &PHP{
		system: sys,
		shell:  sys.Shell(),
		logger: logger,
		config: make(map[string]string),
	}
}

// Configure registers php.ini options to apply at install time. Options must
// be registered before Install; conflicting values are an error.
func (p *PHP) Configure(config map[string]string) error {
	if p.installed {
		return fmt.Errorf("%w: PHP must be configured before installing", ErrAlreadyInstalled)
	}

	for option, value := range config {
		existing, ok := p.config[option]
		if !ok {
			p.config[option] = value
			continue
		}
		if existing != value {
			return fmt.Errorf("%w: PHP option %s: %s and %s", ErrConflictingOption, option, existing, value)
		}
	}
	return nil
}

func (p *PHP) updateConfigFile(ctx context.Context) error {
	options := make([]string, 0, len(p.config))
	for option := range p.config {
		options = append(options, option)
	}
	sort.Strings(options)

	for _, option := range options {
		argv := confgen.PHPOptionSed(option, p.config[option], phpConfigPath)
		if _, err := p.shell.Run(ctx, argv, command.RunOptions{}); err != nil {
			return fmt.Errorf("set PHP option %s: %w", option, err)
		}
	}
	return nil
}

// Install installs the runtime and applies the collected configuration.
func (p *PHP) Install(ctx context.Context) error {
	p.logger.Info("installing PHP")

	if err := p.system.Upgrade(ctx); err != nil {
		return err
	}
	if err := p.system.InstallPackages(ctx, phpPackages...); err != nil {
		return err
	}
	if err := p.updateConfigFile(ctx); err != nil {
		return err
	}

	p.installed = true
	return nil
}
