package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Docker    DockerConfig    `mapstructure:"docker"`
	Network   NetworkConfig   `mapstructure:"network"`
	Container ContainerConfig `mapstructure:"container"`
	Venv      VenvConfig      `mapstructure:"venv"`
	Deploy    DeployConfig    `mapstructure:"deploy"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Options   OptionsConfig   `mapstructure:"options"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Log       LogConfig       `mapstructure:"log"`
}

// DockerConfig holds Docker client configuration.
type DockerConfig struct {
	Host string `mapstructure:"host"`
}

// NetworkConfig describes the network the container attaches to.
type NetworkConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	Subnet string `mapstructure:"subnet"`
}

// ContainerConfig describes the Phabricator container.
type ContainerConfig struct {
	Name          string `mapstructure:"name"`
	Image         string `mapstructure:"image"`
	IPv4Address   string `mapstructure:"ipv4_address"`
	Port          int    `mapstructure:"port"`
	HostPort      int    `mapstructure:"host_port"`
	RestartPolicy string `mapstructure:"restart_policy"`
	Command       string `mapstructure:"command"`
}

// VenvConfig describes the Python environment for the legacy deploy script.
type VenvConfig struct {
	Dir      string   `mapstructure:"dir"`
	Python   string   `mapstructure:"python"`
	Packages []string `mapstructure:"packages"`
}

// DeployConfig holds the legacy deploy script settings.
type DeployConfig struct {
	Script string `mapstructure:"script"`
}

// DatabaseConfig holds run history database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// OptionsConfig holds the installer options file location.
type OptionsConfig struct {
	Path string `mapstructure:"path"`
}

// SSHConfig describes an optional remote setup target.
type SSHConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	KeyPath string `mapstructure:"key_path"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("docker.host", "")
	v.SetDefault("network.name", "phabricator_net")
	v.SetDefault("network.driver", "bridge")
	v.SetDefault("network.subnet", "172.19.0.0/16")
	v.SetDefault("container.name", "phabricator")
	v.SetDefault("container.image", "ubuntu:18.04")
	v.SetDefault("container.ipv4_address", "172.19.0.5")
	v.SetDefault("container.port", 80)
	v.SetDefault("container.host_port", 80)
	v.SetDefault("container.restart_policy", "unless-stopped")
	v.SetDefault("container.command", "sleep infinity")
	v.SetDefault("venv.dir", ".venv")
	v.SetDefault("venv.python", "python3")
	v.SetDefault("venv.packages", []string{"wheel", "paramiko"})
	v.SetDefault("deploy.script", "deploy.py")
	v.SetDefault("database.dsn", "./data/phabctl.db")
	v.SetDefault("options.path", "./data/options.yaml")
	v.SetDefault("ssh.host", "")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.key_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("PHABCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
