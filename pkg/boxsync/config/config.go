package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// RegistryConfig configures the remote registry.
type RegistryConfig struct {
	URL          string `mapstructure:"url"`
	CacheTTLMins int    `mapstructure:"cache_ttl_minutes"`
	CachePath    string `mapstructure:"cache_path"` // Empty means the default XDG cache path
}

// ResolveConfig configures conflict resolution defaults.
type ResolveConfig struct {
	AutoResolveLevel string `mapstructure:"auto_resolve_level"`
	CreateBackups    bool   `mapstructure:"create_backups"`
	BackupDir        string `mapstructure:"backup_dir"` // Empty means <box>/.boxsync/backups
	UseTrash         bool   `mapstructure:"use_trash"`
}

// SyncConfig configures sync behavior.
type SyncConfig struct {
	MaxDaysWithoutSync int      `mapstructure:"max_days_without_sync"`
	MaxContentBytes    int64    `mapstructure:"max_content_bytes"`
	Workers            int      `mapstructure:"workers"`
	Exclude            []string `mapstructure:"exclude"`
}

// Config represents the application configuration.
type Config struct {
	Registry RegistryConfig `mapstructure:"registry"`
	Resolve  ResolveConfig  `mapstructure:"resolve"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/boxsync/config.yaml
//   - $HOME/.config/boxsync/config.yaml
//
// Environment variables are prefixed with BOXSYNC_
// (e.g., BOXSYNC_REGISTRY_URL).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "boxsync"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "boxsync"))

	v.SetEnvPrefix("BOXSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("registry.url", DefaultRegistryURL)
	v.SetDefault("registry.cache_ttl_minutes", DefaultCacheTTLMinutes)
	v.SetDefault("registry.cache_path", "")

	v.SetDefault("resolve.auto_resolve_level", DefaultAutoResolveLevel)
	v.SetDefault("resolve.create_backups", true)
	v.SetDefault("resolve.backup_dir", "")
	v.SetDefault("resolve.use_trash", true)

	v.SetDefault("sync.max_days_without_sync", DefaultMaxDaysWithoutSync)
	v.SetDefault("sync.max_content_bytes", DefaultMaxContentBytes)
	v.SetDefault("sync.workers", DefaultCompareWorkers)
	v.SetDefault("sync.exclude", DefaultExclusions)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", map[string]string{
		"snapshot": "info",
		"compare":  "info",
		"resolve":  "info",
		"registry": "warn",
	})

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is acceptable; we use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Resolve.BackupDir, err = ExpandPath(cfg.Resolve.BackupDir); err != nil {
		return nil, err
	}
	if cfg.Registry.CachePath == "" {
		cfg.Registry.CachePath = DefaultCachePath()
	}

	return &cfg, nil
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "boxsync"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "boxsync"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// StateDir returns $XDG_STATE_HOME/boxsync/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "boxsync")
}

// CacheDir returns $XDG_CACHE_HOME/boxsync/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "boxsync")
}

// DefaultCachePath returns the default registry cache location.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "registry")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "boxsync.log")
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
