// Package paths resolves the on-disk locations the daemon works with:
// installed packages, their resource trees and manifests, and the registry
// database.
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultPackageRoot is where the package manager installs packages.
	DefaultPackageRoot = "/opt/usr/globalapps"

	// DefaultResourceSubpath is the resource tree inside an installed package.
	DefaultResourceSubpath = "res/global"

	// DefaultDBPath is the registry database used when none is configured.
	DefaultDBPath = "/var/lib/mlagent/mlagent.db"

	// ManifestFile names the package metadata file at the top of a package.
	ManifestFile = "mlagent-package.yaml"
)

var (
	// ErrInvalidPackageID is returned for package ids that are not a single path element.
	ErrInvalidPackageID = errors.New("invalid package id")
	// ErrInvalidResType is returned for resource types that are not a single path element.
	ErrInvalidResType = errors.New("invalid resource type")
)

// ValidatePackageID rejects ids that would resolve outside the package root.
func ValidatePackageID(id string) error {
	return validateElement(ErrInvalidPackageID, id)
}

// ValidateResType rejects resource types that would resolve outside the
// package resource directory.
func ValidateResType(resType string) error {
	return validateElement(ErrInvalidResType, resType)
}

func validateElement(sentinel error, elem string) error {
	switch {
	case elem == "", elem == ".", elem == "..":
		return fmt.Errorf("%w: %q", sentinel, elem)
	case strings.ContainsAny(elem, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", sentinel, elem)
	}
	return nil
}

// PackageDir returns <root>/<packageID>.
func PackageDir(root, packageID string) string {
	return filepath.Join(root, packageID)
}

// ResourceDir returns <root>/<packageID>/<subpath>, the directory listed on
// uninstall and update.
func ResourceDir(root, subpath, packageID string) string {
	return filepath.Join(root, packageID, subpath)
}

// ResourceRoot returns <root>/<packageID>/<subpath>/<resType>, the directory
// holding the descriptor files.
func ResourceRoot(root, subpath, packageID, resType string) string {
	return filepath.Join(root, packageID, subpath, resType)
}

// ManifestPath returns the metadata file of an installed package.
func ManifestPath(root, packageID string) string {
	return filepath.Join(root, packageID, ManifestFile)
}

// DefaultConfigDir returns ~/.config/mlagent, or "" when the home directory
// cannot be determined.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mlagent")
}
