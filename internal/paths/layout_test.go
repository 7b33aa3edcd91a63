package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceRoot(t *testing.T) {
	require.Equal(t,
		filepath.FromSlash("/opt/usr/globalapps/app1/res/global/rpk"),
		ResourceRoot(DefaultPackageRoot, DefaultResourceSubpath, "app1", "rpk"))
}

func TestResourceDir(t *testing.T) {
	require.Equal(t,
		filepath.FromSlash("/pkgs/app1/res/global"),
		ResourceDir("/pkgs", DefaultResourceSubpath, "app1"))
}

func TestManifestPath(t *testing.T) {
	require.Equal(t, filepath.FromSlash("/pkgs/app1/mlagent-package.yaml"), ManifestPath("/pkgs", "app1"))
	require.Equal(t, filepath.FromSlash("/pkgs/app1"), PackageDir("/pkgs", "app1"))
}

func TestValidatePackageID(t *testing.T) {
	tests := []struct {
		id    string
		valid bool
	}{
		{id: "app1", valid: true},
		{id: "org.example.vision", valid: true},
		{id: "", valid: false},
		{id: ".", valid: false},
		{id: "..", valid: false},
		{id: "../etc", valid: false},
		{id: "a/b", valid: false},
		{id: `a\b`, valid: false},
	}
	for _, tt := range tests {
		err := ValidatePackageID(tt.id)
		if tt.valid {
			require.NoError(t, err, "id %q", tt.id)
		} else {
			require.ErrorIs(t, err, ErrInvalidPackageID, "id %q", tt.id)
		}
	}
}

func TestValidateResType(t *testing.T) {
	require.NoError(t, ValidateResType("rpk"))
	for _, bad := range []string{"", ".", "..", "../../x", "a/b", `a\b`} {
		require.ErrorIs(t, ValidateResType(bad), ErrInvalidResType, "res_type %q", bad)
	}
}
