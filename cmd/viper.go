package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/paths"
)

// envKeyReplacer maps nested keys to environment names: log.level -> MLAGENT_LOG_LEVEL.
var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// setDefaults registers every config key so environment variables can
// override keys absent from the config file.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("package_root", d.PackageRoot)
	v.SetDefault("resource_subpath", d.ResourceSubpath)
	v.SetDefault("package_category", d.PackageCategory)
	v.SetDefault("spool_dir", d.SpoolDir)
	v.SetDefault("spool_debounce", d.SpoolDebounce)
	v.SetDefault("log.path", d.Log.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	for name, enabled := range d.Flags {
		v.SetDefault("flags."+name, enabled)
	}
}

// readConfig loads defaults, the config file and MLAGENT_* environment
// variables into a Config. With an empty path the file is searched for:
//  1. .mlagent/config.yaml (current directory)
//  2. ~/.config/mlagent/config.yaml (user config)
//
// A missing file is not an error when searching.
func readConfig(v *viper.Viper, path string) (config.Config, error) {
	setDefaults(v, config.Defaults())
	v.SetEnvPrefix("MLAGENT")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(".mlagent/config.yaml"); err == nil {
		v.SetConfigFile(".mlagent/config.yaml")
	} else {
		v.AddConfigPath(paths.DefaultConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return config.Config{}, fmt.Errorf("reading config: %w", err)
		}
	}

	var c config.Config
	if err := v.Unmarshal(&c); err != nil {
		return config.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}
