package domain

import "context"

// Registry is the write contract the synchronizer drives.
//
// DeleteModel removes exactly one version (version > 0) and refuses to remove
// the active one. DeleteAllModelVersions removes every version of a name; it is
// the "clear previous" operation and ignores activation.
type Registry interface {
	AddModel(ctx context.Context, name, path string, active bool, description, appInfo string) (int, error)
	DeleteModel(ctx context.Context, name string, version int) error
	DeleteAllModelVersions(ctx context.Context, name string) error
	SetPipeline(ctx context.Context, name, description string) error
	AddResource(ctx context.Context, name, path, description, appInfo string) error
	DeleteResource(ctx context.Context, name string) error
}

// ModelRepository defines persistence for versioned models.
type ModelRepository interface {
	// AddModel registers a new version and returns its number.
	// When active is true every other version of name is deactivated.
	AddModel(ctx context.Context, name, path string, active bool, description, appInfo string) (int, error)

	// GetModel returns one version.
	// Returns ModelNotFoundError if it does not exist.
	GetModel(ctx context.Context, name string, version int) (*Model, error)

	// GetActiveModel returns the active version of name.
	// Returns NoActiveModelError if no version is active.
	GetActiveModel(ctx context.Context, name string) (*Model, error)

	// ListModels returns every version of name, ascending by version.
	// Returns ModelNotFoundError if there are none.
	ListModels(ctx context.Context, name string) ([]*Model, error)

	// ActivateModel makes version the only active version of name.
	ActivateModel(ctx context.Context, name string, version int) error

	// UpdateModelDescription replaces the description of one version.
	UpdateModelDescription(ctx context.Context, name string, version int, description string) error

	// DeleteModel removes one version. Returns ErrModelActive for the active version.
	DeleteModel(ctx context.Context, name string, version int) error

	// DeleteAllModelVersions removes every version of name.
	// Returns ModelNotFoundError if there was nothing to delete.
	DeleteAllModelVersions(ctx context.Context, name string) error

	// DeleteModelsByApp removes every model registered from the given package
	// and returns the affected names.
	DeleteModelsByApp(ctx context.Context, appID string) ([]string, error)
}

// PipelineRepository defines persistence for pipeline descriptions.
type PipelineRepository interface {
	// SetPipeline inserts or replaces the description stored under name.
	SetPipeline(ctx context.Context, name, description string) error

	// GetPipeline returns PipelineNotFoundError if name is unknown.
	GetPipeline(ctx context.Context, name string) (*Pipeline, error)

	// ListPipelines returns all pipelines ordered by name.
	ListPipelines(ctx context.Context) ([]*Pipeline, error)

	// DeletePipeline returns PipelineNotFoundError if name is unknown.
	DeletePipeline(ctx context.Context, name string) error
}

// ResourceRepository defines persistence for resources.
type ResourceRepository interface {
	// AddResource inserts or replaces the (name, path) row.
	AddResource(ctx context.Context, name, path, description, appInfo string) error

	// GetResources returns every path registered under name, ordered by path.
	// Returns ResourceNotFoundError if there are none.
	GetResources(ctx context.Context, name string) ([]*Resource, error)

	// DeleteResource removes every row of name.
	// Returns ResourceNotFoundError if there was nothing to delete.
	DeleteResource(ctx context.Context, name string) error

	// DeleteResourcesByApp removes every resource registered from the given
	// package and returns the affected names.
	DeleteResourcesByApp(ctx context.Context, appID string) ([]string, error)
}
