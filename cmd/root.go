package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/paths"
)

var (
	version     = "dev"
	cfgFile     string
	verboseFlag bool
	cfg         config.Config
	logCleanup  func()
	configErr   error
)

var rootCmd = &cobra.Command{
	Use:   "mlagent",
	Short: "Keep the ML artifact registry in sync with installed packages",
	Long: `mlagent watches package lifecycle events and registers the models,
pipelines and resources that resource packages carry in their descriptor files.

Run without a subcommand to start the daemon.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDaemon(cmd.Context(), cfg)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./.mlagent/config.yaml or ~/.config/mlagent/config.yaml)")
	rootCmd.PersistentFlags().StringP("db", "p", "",
		"path to the registry database (default: "+paths.DefaultDBPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"log at debug level and mirror the log to stderr")

	// Bind flags to viper
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	var err error
	cfg, err = readConfig(viper.GetViper(), cfgFile)
	if err != nil {
		configErr = err
	}
}

// setup validates the configuration and starts logging.
func setup(cmd *cobra.Command, _ []string) error {
	if configErr != nil {
		return configErr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cleanup, err := initLogging(cfg.Log, verboseFlag, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logCleanup = cleanup
	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug(log.CatConfig, "Loaded config", "path", used)
	}
	return nil
}

// initLogging writes to the configured file, or to stderr when none is set.
// Verbose lowers the level to debug and mirrors file output to stderr.
func initLogging(lc config.LogConfig, verbose bool, stderr io.Writer) (func(), error) {
	level, err := log.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	cleanup := func() {}
	if lc.Path == "" {
		log.InitWriter(stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(lc.Path), 0o750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(lc.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) //nolint:gosec // G304: path comes from configuration
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		if verbose {
			log.InitWriter(f, stderr)
		} else {
			log.InitWriter(f)
		}
		cleanup = func() { _ = f.Close() }
	}

	if verbose {
		level = log.LevelDebug
	}
	log.SetMinLevel(level)
	return func() {
		cleanup()
		log.Reset()
	}, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
