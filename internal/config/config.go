// Package config provides configuration types and defaults for mlagent.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/zjrosen/mlagent/internal/flags"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/paths"
	"github.com/zjrosen/mlagent/internal/tracing"
)

// Config holds all configuration options for mlagent.
type Config struct {
	DBPath          string          `mapstructure:"db_path"`
	PackageRoot     string          `mapstructure:"package_root"`
	ResourceSubpath string          `mapstructure:"resource_subpath"`
	PackageCategory string          `mapstructure:"package_category"` // compared case-insensitively
	SpoolDir        string          `mapstructure:"spool_dir"`
	SpoolDebounce   time.Duration   `mapstructure:"spool_debounce"`
	Log             LogConfig       `mapstructure:"log"`
	Tracing         tracing.Config  `mapstructure:"tracing"`
	Cache           CacheConfig     `mapstructure:"cache"`
	Flags           map[string]bool `mapstructure:"flags"`
}

// LogConfig holds logging options.
type LogConfig struct {
	// Path is the log file. Empty logs to stderr.
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"` // debug, info, warn, error
}

// CacheConfig holds query cache options.
type CacheConfig struct {
	// TTL bounds how long lookups are cached. Zero disables the cache.
	TTL time.Duration `mapstructure:"ttl"`
}

// DefaultSpoolDir is where lifecycle events are dropped for the daemon.
const DefaultSpoolDir = "/var/spool/mlagent"

// DefaultTracesFilePath returns the default path for trace file export.
// Returns ~/.config/mlagent/traces/traces.jsonl or empty string if home dir unavailable.
func DefaultTracesFilePath() string {
	dir := paths.DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		DBPath:          paths.DefaultDBPath,
		PackageRoot:     paths.DefaultPackageRoot,
		ResourceSubpath: paths.DefaultResourceSubpath,
		PackageCategory: "rpk",
		SpoolDir:        DefaultSpoolDir,
		SpoolDebounce:   200 * time.Millisecond,
		Log: LogConfig{
			Level: "info",
		},
		Tracing: tc,
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		Flags: flags.Defaults(),
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if !filepath.IsAbs(c.PackageRoot) {
		return fmt.Errorf("package_root must be an absolute path, got %q", c.PackageRoot)
	}
	if err := ValidateSubpath(c.ResourceSubpath); err != nil {
		return err
	}
	if strings.TrimSpace(c.PackageCategory) == "" {
		return fmt.Errorf("package_category is required")
	}
	if c.SpoolDir == "" {
		return fmt.Errorf("spool_dir is required")
	}
	if c.SpoolDebounce < 0 {
		return fmt.Errorf("spool_debounce must not be negative, got %v", c.SpoolDebounce)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %v", c.Cache.TTL)
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		return err
	}
	return ValidateFlags(c.Flags)
}

// ValidateSubpath checks that the resource subpath stays inside a package.
func ValidateSubpath(subpath string) error {
	if subpath == "" {
		return fmt.Errorf("resource_subpath is required")
	}
	if filepath.IsAbs(subpath) {
		return fmt.Errorf("resource_subpath must be relative, got %q", subpath)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(subpath), "/"), "..") {
		return fmt.Errorf("resource_subpath must not contain \"..\", got %q", subpath)
	}
	return nil
}

// ValidateFlags rejects flag names mlagent does not know.
func ValidateFlags(set map[string]bool) error {
	known := flags.Defaults()
	for name := range set {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("flags: unknown flag %q", name)
		}
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	// Validate SampleRate is in range [0.0, 1.0]
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case "none", "file", "stdout", "otlp":
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}

	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# mlagent configuration

# Registry database
db_path: /var/lib/mlagent/mlagent.db

# Installed packages live under <package_root>/<package_id>/<resource_subpath>/<res_type>
package_root: /opt/usr/globalapps
resource_subpath: res/global

# Only lifecycle events of this package category are handled (case-insensitive)
package_category: rpk

# Lifecycle events are read from JSON files dropped in this directory
spool_dir: /var/spool/mlagent
spool_debounce: 200ms

log:
  # path: /var/log/mlagent.log   # empty logs to stderr
  level: info                    # debug, info, warn, error

# Active-model and pipeline lookup cache used by the daemon
cache:
  ttl: 5m                        # 0 disables caching

# Feature flags
flags:
  invalidate-on-uninstall: false # drop a package's models and resources when its uninstall starts
  resync-on-update: false        # re-read a package's descriptors when an update completes

# Distributed tracing
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/mlagent/traces/traces.jsonl
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
