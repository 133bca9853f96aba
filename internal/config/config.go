// Package config loads and validates shipyard configuration via viper.
// Values come from, in increasing precedence: built-in defaults, the config
// file, SHIPYARD_* environment variables, and command-line flags bound by
// the cmd package.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete shipyard configuration
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Publish   PublishConfig   `mapstructure:"publish"`
	Registry  RegistryConfig  `mapstructure:"registry"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	UI        UIConfig        `mapstructure:"ui"`
}

// WorkspaceConfig controls where and how the workspace is discovered
type WorkspaceConfig struct {
	// Dir is the workspace root directory containing workspace.yaml.
	// Empty means the current working directory.
	Dir string `mapstructure:"dir"`
	// Watch re-scans the workspace while a run is in progress and feeds
	// added or removed packages to the live scheduler
	Watch bool `mapstructure:"watch"`
}

// PublishConfig controls how packages are published
type PublishConfig struct {
	// Concurrency is the maximum number of simultaneous publishes (default: 4)
	Concurrency int `mapstructure:"concurrency"`
	// Mode selects the publisher: "command", "registry", or "dry-run".
	// The default is dry-run so a bare invocation never mutates anything
	Mode string `mapstructure:"mode"`
	// Command is the shell command run per package in command mode
	Command string `mapstructure:"command"`
	// MaxRetries is the number of retries after a first failed attempt (default: 2)
	MaxRetries int `mapstructure:"max_retries"`
	// RetryBaseDelayMs is the base backoff in milliseconds; the delay
	// doubles on every subsequent attempt (default: 500)
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms"`
}

// RegistryConfig controls the registry publisher
type RegistryConfig struct {
	// URL is the registry base URL. Overrides the workspace manifest value
	URL string `mapstructure:"url"`
	// Token is the bearer token for authenticated uploads
	Token string `mapstructure:"token"`
	// TimeoutSeconds is the per-upload HTTP timeout (default: 60)
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is where run logs are written. Empty means <workspace>/.shipyard
	Dir string `mapstructure:"dir"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// UIConfig controls the terminal UI behavior
type UIConfig struct {
	// Plain disables the interactive TUI and prints plain-text progress
	Plain bool `mapstructure:"plain"`
	// ViewMode is the initial display mode: "window" or "all" (default: "window")
	ViewMode string `mapstructure:"view_mode"`
	// Filter is the initial display filter: "all", "active", or "failed" (default: "all")
	Filter string `mapstructure:"filter"`
	// WindowSize is how many packages the window mode shows at once (default: 12)
	WindowSize int `mapstructure:"window_size"`
}

// RetryBaseDelay returns RetryBaseDelayMs as a time.Duration
func (p *PublishConfig) RetryBaseDelay() time.Duration {
	return time.Duration(p.RetryBaseDelayMs) * time.Millisecond
}

// Timeout returns TimeoutSeconds as a time.Duration
func (r *RegistryConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// LogDir returns the resolved log directory for a workspace rooted at dir
func (l *LoggingConfig) LogDir(workspaceDir string) string {
	if l.Dir != "" {
		return l.Dir
	}
	return filepath.Join(workspaceDir, ".shipyard")
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{
			Dir:   "",
			Watch: false,
		},
		Publish: PublishConfig{
			Concurrency:      4,
			Mode:             "dry-run",
			Command:          "",
			MaxRetries:       2,
			RetryBaseDelayMs: 500,
		},
		Registry: RegistryConfig{
			URL:            "",
			Token:          "",
			TimeoutSeconds: 60,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		UI: UIConfig{
			Plain:      false,
			ViewMode:   "window",
			Filter:     "all",
			WindowSize: 12,
		},
	}
}

// SetDefaults registers every default value with viper so that partial
// config files and environment overrides merge cleanly
func SetDefaults() {
	defaults := Default()

	// Workspace defaults
	viper.SetDefault("workspace.dir", defaults.Workspace.Dir)
	viper.SetDefault("workspace.watch", defaults.Workspace.Watch)

	// Publish defaults
	viper.SetDefault("publish.concurrency", defaults.Publish.Concurrency)
	viper.SetDefault("publish.mode", defaults.Publish.Mode)
	viper.SetDefault("publish.command", defaults.Publish.Command)
	viper.SetDefault("publish.max_retries", defaults.Publish.MaxRetries)
	viper.SetDefault("publish.retry_base_delay_ms", defaults.Publish.RetryBaseDelayMs)

	// Registry defaults
	viper.SetDefault("registry.url", defaults.Registry.URL)
	viper.SetDefault("registry.token", defaults.Registry.Token)
	viper.SetDefault("registry.timeout_seconds", defaults.Registry.TimeoutSeconds)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	// UI defaults
	viper.SetDefault("ui.plain", defaults.UI.Plain)
	viper.SetDefault("ui.view_mode", defaults.UI.ViewMode)
	viper.SetDefault("ui.filter", defaults.UI.Filter)
	viper.SetDefault("ui.window_size", defaults.UI.WindowSize)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults if
// loading fails
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the directory where the user-level config file lives
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shipyard")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".shipyard"
	}
	return filepath.Join(home, ".config", "shipyard")
}

// ConfigFile returns the full path of the user-level config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
