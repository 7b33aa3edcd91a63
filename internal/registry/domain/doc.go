// Package domain holds the registry's entities and contracts.
//
// It defines the persisted artifact records (Model, Pipeline, Resource), the
// provenance blob attached to them (AppInfo), the typed errors the registry
// reports, and the repository interfaces implemented by the storage layer.
// Like the rest of the domain layer it has no knowledge of SQL, files or JSON
// descriptors; those live in infrastructure and descriptor packages.
//
// # Versioning
//
// Models are versioned per name. The registry assigns versions, starting at 1,
// and never hands out the same number twice for a name, even after every
// version was deleted. At most one version per name is active.
//
// # Keys
//
// Pipelines are keyed by name and replaced on write. Resources are grouped by
// name; each (name, path) pair is one row.
package domain
