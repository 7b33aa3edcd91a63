// Package testutil lays out installed packages on disk and opens throwaway
// registry databases for tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/mlagent/internal/paths"
)

// PackageBuilder accumulates a fake installed package and writes it out.
type PackageBuilder struct {
	t          *testing.T
	root       string
	packageID  string
	subpath    string
	resType    string
	resVersion string
	manifest   bool
	models     []record
	pipelines  []record
	resources  []record
	raw        map[string]string
	single     map[string]bool
}

// NewPackageBuilder creates a builder for packageID under the package root.
// The resource type defaults to "rpk" with version "1".
func NewPackageBuilder(t *testing.T, root, packageID string) *PackageBuilder {
	t.Helper()
	return &PackageBuilder{
		t:          t,
		root:       root,
		packageID:  packageID,
		subpath:    paths.DefaultResourceSubpath,
		resType:    "rpk",
		resVersion: "1",
		manifest:   true,
		raw:        make(map[string]string),
		single:     make(map[string]bool),
	}
}

// WithResType sets the manifest's res_type and res_version.
func (b *PackageBuilder) WithResType(resType, resVersion string) *PackageBuilder {
	b.resType, b.resVersion = resType, resVersion
	return b
}

// WithSubpath overrides the resource subpath.
func (b *PackageBuilder) WithSubpath(subpath string) *PackageBuilder {
	b.subpath = subpath
	return b
}

// WithoutManifest skips writing the package manifest.
func (b *PackageBuilder) WithoutManifest() *PackageBuilder {
	b.manifest = false
	return b
}

// WithModel adds a model record. path is relative to the resource root unless absolute.
func (b *PackageBuilder) WithModel(name, path string, opts ...RecordOption) *PackageBuilder {
	b.models = append(b.models, build(record{"name": name, "model": b.abs(path)}, opts))
	return b
}

// WithPipeline adds a pipeline record.
func (b *PackageBuilder) WithPipeline(name, description string, opts ...RecordOption) *PackageBuilder {
	b.pipelines = append(b.pipelines, build(record{"name": name, "description": description}, opts))
	return b
}

// WithResource adds a resource record. path is relative to the resource root unless absolute.
func (b *PackageBuilder) WithResource(name, path string, opts ...RecordOption) *PackageBuilder {
	b.resources = append(b.resources, build(record{"name": name, "path": b.abs(path)}, opts))
	return b
}

// WithSingleObject writes the descriptor named by file as a bare object rather
// than an array. The kind must have exactly one record.
func (b *PackageBuilder) WithSingleObject(file string) *PackageBuilder {
	b.single[file] = true
	return b
}

// WithRawDescriptor writes content verbatim to the named descriptor file,
// replacing any records added for it.
func (b *PackageBuilder) WithRawDescriptor(file, content string) *PackageBuilder {
	b.raw[file] = content
	return b
}

// ResourceRoot returns the directory the descriptors are written to.
func (b *PackageBuilder) ResourceRoot() string {
	return paths.ResourceRoot(b.root, b.subpath, b.packageID, b.resType)
}

// Build writes the package and returns its resource root.
func (b *PackageBuilder) Build() string {
	b.t.Helper()

	dir := b.ResourceRoot()
	require.NoError(b.t, os.MkdirAll(dir, 0750))

	if b.manifest {
		data, err := yaml.Marshal(map[string]string{"res_type": b.resType, "res_version": b.resVersion})
		require.NoError(b.t, err)
		require.NoError(b.t, os.WriteFile(paths.ManifestPath(b.root, b.packageID), data, 0600))
	}

	b.writeRecords("model_description.json", b.models)
	b.writeRecords("pipeline_description.json", b.pipelines)
	b.writeRecords("resource_description.json", b.resources)
	for file, content := range b.raw {
		require.NoError(b.t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0600))
	}
	return dir
}

func (b *PackageBuilder) writeRecords(file string, records []record) {
	b.t.Helper()
	if len(records) == 0 {
		return
	}
	if _, ok := b.raw[file]; ok {
		return
	}

	var doc any = records
	if b.single[file] {
		require.Len(b.t, records, 1, "single-object descriptor %s", file)
		doc = records[0]
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(b.t, err)
	require.NoError(b.t, os.WriteFile(filepath.Join(b.ResourceRoot(), file), data, 0600))
}

func (b *PackageBuilder) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(b.ResourceRoot(), path)
}

func build(r record, opts []RecordOption) record {
	for _, opt := range opts {
		opt(r)
	}
	return r
}
