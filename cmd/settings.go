package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/paths"
)

var configInitCmd = &cobra.Command{
	Use:   "config:init [path]",
	Short: "Write a commented default config file",
	Long: `Write the default configuration to path, or to
~/.config/mlagent/config.yaml when no path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := filepath.Join(paths.DefaultConfigDir(), "config.yaml")
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var flagSetCmd = &cobra.Command{
	Use:   "flag:set <name> <true|false>",
	Short: "Enable or disable a feature flag in the config file",
	Long: `Enable or disable a feature flag in the config file in use. Comments and
other settings are kept. Restart the daemon to apply.

Flags:
  invalidate-on-uninstall  remove a package's models and resources when its uninstall starts
  resync-on-update         re-register a package's descriptors when an update completes`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := strconv.ParseBool(args[1])
		if err != nil {
			return fmt.Errorf("invalid value %q: %w", args[1], err)
		}
		path := viper.ConfigFileUsed()
		if path == "" {
			path = filepath.Join(paths.DefaultConfigDir(), "config.yaml")
		}
		if err := config.SetFlag(path, args[0], enabled); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s = %t\n", path, args[0], enabled)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configInitCmd, flagSetCmd)
}
