package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level        string            `mapstructure:"level"`
	Path         string            `mapstructure:"path"`
	ConsoleLevel string            `mapstructure:"console_level"`
	Rotation     RotationConfig    `mapstructure:"rotation"`
	Components   map[string]string `mapstructure:"components"`
}

// CacheConfig configures the digest cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// ReportConfig configures the run report.
type ReportConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"`
}

// Config is the merged configuration.
type Config struct {
	Algorithm         string        `mapstructure:"algorithm"`
	Format            string        `mapstructure:"format"`
	SizeOnly          bool          `mapstructure:"size_only"`
	ReportExtra       bool          `mapstructure:"report_extra"`
	Silent            bool          `mapstructure:"silent"`
	Interactive       bool          `mapstructure:"interactive"`
	Count             bool          `mapstructure:"count"`
	Match             string        `mapstructure:"match"`
	Ignore            string        `mapstructure:"ignore"`
	IgnoreGlobs       []string      `mapstructure:"ignore_globs"`
	BufferSize        string        `mapstructure:"buffer_size"`
	ProgressBlockSize string        `mapstructure:"progress_block_size"`
	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	MetricsFile       string        `mapstructure:"metrics_file"`
	Cache             CacheConfig   `mapstructure:"cache"`
	Report            ReportConfig  `mapstructure:"report"`
	Logging           LoggingConfig `mapstructure:"logging"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("algorithm", DefaultAlgorithm)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("size_only", false)
	v.SetDefault("report_extra", false)
	v.SetDefault("silent", false)
	v.SetDefault("interactive", false)
	v.SetDefault("count", false)
	v.SetDefault("match", "")
	v.SetDefault("ignore", "")
	v.SetDefault("ignore_globs", []string{})
	v.SetDefault("buffer_size", DefaultBufferSize)
	v.SetDefault("progress_block_size", DefaultProgressBlockSize)
	v.SetDefault("refresh_interval", DefaultRefreshInterval)
	v.SetDefault("metrics_file", "")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.path", "") // Empty means CacheDir()/digests

	v.SetDefault("report.path", "")
	v.SetDefault("report.format", DefaultReportFormat)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty means logging.DefaultLogPath()
	v.SetDefault("logging.console_level", "")
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", DefaultLogMaxAge)
	v.SetDefault("logging.rotation.max_backups", DefaultLogMaxBackups)
	v.SetDefault("logging.components", DefaultComponents)
}

// Load merges defaults, the config file and the environment into v and
// decodes the result. A nil v uses a fresh instance. With configFile empty
// the standard locations are searched and a missing file is not an error.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Cache.Path = expand(cfg.Cache.Path)
	cfg.Logging.Path = expand(cfg.Logging.Path)
	return &cfg, nil
}

// BufferBytes parses BufferSize.
func (c *Config) BufferBytes() (int, error) {
	return parseBytes("buffer_size", c.BufferSize)
}

// ProgressBlockBytes parses ProgressBlockSize.
func (c *Config) ProgressBlockBytes() (uint64, error) {
	n, err := parseBytes("progress_block_size", c.ProgressBlockSize)
	return uint64(n), err
}

// CachePath returns the cache directory, defaulting under CacheDir().
func (c *Config) CachePath() string {
	if c.Cache.Path != "" {
		return c.Cache.Path
	}
	return filepath.Join(CacheDir(), "digests")
}

// LoggingConfig converts the logging section for logging.Init.
func (c *Config) LoggingConfig() (logging.Config, error) {
	lc := logging.DefaultConfig()
	lc.Level = c.Logging.Level
	lc.ConsoleLevel = c.Logging.ConsoleLevel
	lc.Components = c.Logging.Components
	if c.Logging.Path != "" {
		lc.Path = c.Logging.Path
	}

	if c.Logging.Rotation.MaxSize != "" {
		size, err := humanize.ParseBytes(c.Logging.Rotation.MaxSize)
		if err != nil {
			return lc, fmt.Errorf("invalid logging.rotation.max_size %q: %w", c.Logging.Rotation.MaxSize, err)
		}
		lc.Rotation.MaxSize = int64(size)
	}
	if c.Logging.Rotation.MaxAge > 0 {
		lc.Rotation.MaxAge = c.Logging.Rotation.MaxAge
	}
	if c.Logging.Rotation.MaxBackups > 0 {
		lc.Rotation.MaxBackups = c.Logging.Rotation.MaxBackups
	}
	return lc, nil
}

func parseBytes(key, s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, s)
	}
	return int(n), nil
}

// ConfigDir returns $XDG_CONFIG_HOME/hshchk, or ~/.config/hshchk.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "hshchk"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hshchk"), nil
}

// ConfigPath returns the default config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// StateDir returns $XDG_STATE_HOME/hshchk/ for log files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "hshchk")
}

// CacheDir returns $XDG_CACHE_HOME/hshchk/ for the digest cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "hshchk")
}

// WriteDefault writes the default config file unless one exists, and
// returns its path.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`# hshchk configuration

# Digest algorithm: MD5, SHA1, SHA256, SHA512, BLAKE2B, BLAKE2S, BLAKE3
algorithm: %s

# Manifest format for new manifests: sum (<ALG>SUMS) or hshchk (hshchk.<alg>)
format: %s

# Verify sizes only, without hashing
size_only: false

# Report files that are not in the manifest
report_extra: false

# Count files before processing so progress can show totals
count: false

# Regular expressions selecting and excluding paths
match: ""
ignore: ""

# Shell globs matched against base names and relative paths
ignore_globs: []

# Read buffer and progress granularity
buffer_size: %s
progress_block_size: %s
refresh_interval: %s

# Reuse digests of unchanged files when creating manifests
cache:
  enabled: false
  # Empty means $XDG_CACHE_HOME/hshchk/digests
  path: ""

# Run report written after each run (formats: plain, json, yaml)
report:
  path: ""
  format: %s

# Prometheus textfile written after each run
metrics_file: ""

logging:
  # Log level: debug, info, warn, error
  level: %s
  # Empty means $XDG_STATE_HOME/hshchk/hshchk.log
  path: ""
  # Also log to stderr at this level; empty disables
  console_level: ""
  rotation:
    max_size: %s
    max_age: %d       # days
    max_backups: %d
  components:
    engine: info
    cache: warn
    cli: info
`, DefaultAlgorithm, DefaultFormat, DefaultBufferSize, DefaultProgressBlockSize, DefaultRefreshInterval,
		DefaultReportFormat, DefaultLogLevel, DefaultLogMaxSize, DefaultLogMaxAge, DefaultLogMaxBackups)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write default config: %w", err)
	}
	return path, nil
}

// expand replaces a leading ~ with the home directory.
func expand(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, path[1:])
}
