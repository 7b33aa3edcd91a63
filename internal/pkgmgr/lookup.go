package pkgmgr

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/mlagent/internal/paths"
)

// ResourceInfo is the package metadata needed to find its descriptors.
type ResourceInfo struct {
	ResType    string `yaml:"res_type"`
	ResVersion string `yaml:"res_version"`
}

// Lookup resolves the resource metadata of an installed package.
// It is queried once per install-completion event and never cached.
type Lookup interface {
	Lookup(ctx context.Context, packageID string) (ResourceInfo, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, packageID string) (ResourceInfo, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, packageID string) (ResourceInfo, error) {
	return f(ctx, packageID)
}

// ErrNoResType is returned when a manifest does not name a resource type.
var ErrNoResType = errors.New("package manifest has no res_type")

// ManifestLookup reads <root>/<package>/mlagent-package.yaml.
type ManifestLookup struct {
	root string
}

// NewManifestLookup creates a lookup over packages installed under root.
func NewManifestLookup(root string) *ManifestLookup {
	return &ManifestLookup{root: root}
}

var _ Lookup = (*ManifestLookup)(nil)

// Lookup implements Lookup.
func (l *ManifestLookup) Lookup(_ context.Context, packageID string) (ResourceInfo, error) {
	if err := paths.ValidatePackageID(packageID); err != nil {
		return ResourceInfo{}, err
	}

	path := paths.ManifestPath(l.root, packageID)
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from a validated package id
	if err != nil {
		return ResourceInfo{}, fmt.Errorf("failed to read package manifest: %w", err)
	}

	var info ResourceInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return ResourceInfo{}, fmt.Errorf("failed to parse package manifest %s: %w", path, err)
	}
	if info.ResType == "" {
		return ResourceInfo{}, fmt.Errorf("%s: %w", path, ErrNoResType)
	}
	if err := paths.ValidateResType(info.ResType); err != nil {
		return ResourceInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}
