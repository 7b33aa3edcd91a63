package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/mlagent/internal/flags"
)

func loadFlags(t *testing.T, path string) map[string]bool {
	t.Helper()
	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	return cfg.Flags
}

func TestSetFlag_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetFlag(path, flags.FlagResyncOnUpdate, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# Registry database")
	require.Contains(t, string(data), "package_category: rpk")

	got := loadFlags(t, path)
	require.True(t, got[flags.FlagResyncOnUpdate])
	require.False(t, got[flags.FlagInvalidateOnUninstall])
}

func TestSetFlag_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	require.NoError(t, SetFlag(path, flags.FlagInvalidateOnUninstall, true))

	require.Equal(t, map[string]bool{flags.FlagInvalidateOnUninstall: true}, loadFlags(t, path))
}

func TestSetFlag_AddsFlagsSection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("# mine\ndb_path: /tmp/x.db\n"), 0o600))

	require.NoError(t, SetFlag(path, flags.FlagResyncOnUpdate, true))
	require.NoError(t, SetFlag(path, flags.FlagResyncOnUpdate, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "# mine"))
	require.Contains(t, string(data), "db_path: /tmp/x.db")
	require.Equal(t, 1, strings.Count(string(data), flags.FlagResyncOnUpdate))
	require.Equal(t, map[string]bool{flags.FlagResyncOnUpdate: false}, loadFlags(t, path))
}

func TestSetFlag_UnknownFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	err := SetFlag(path, "turbo", true)
	require.ErrorContains(t, err, "unknown flag")
	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr), "nothing written for a rejected flag")
}

func TestSetFlag_RejectsNonMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))

	require.Error(t, SetFlag(path, flags.FlagResyncOnUpdate, true))
}
