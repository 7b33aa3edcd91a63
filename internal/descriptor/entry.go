package descriptor

import "github.com/zjrosen/mlagent/internal/registry/domain"

// Entry is a validated descriptor record. It is one of ModelEntry,
// PipelineEntry or ResourceEntry.
type Entry interface {
	Kind() Kind
	Key() string
	isEntry()
}

// ModelEntry is a model record ready for registration.
type ModelEntry struct {
	Name          string
	Path          string
	Description   string
	AppInfo       domain.AppInfo
	Active        bool
	ClearPrevious bool
}

// PipelineEntry is a pipeline record ready for registration.
type PipelineEntry struct {
	Name        string
	Description string
}

// ResourceEntry is a resource record ready for registration.
type ResourceEntry struct {
	Name          string
	Path          string
	Description   string
	AppInfo       domain.AppInfo
	ClearPrevious bool
}

func (ModelEntry) Kind() Kind    { return KindModel }
func (PipelineEntry) Kind() Kind { return KindPipeline }
func (ResourceEntry) Kind() Kind { return KindResource }

func (e ModelEntry) Key() string    { return e.Name }
func (e PipelineEntry) Key() string { return e.Name }
func (e ResourceEntry) Key() string { return e.Name }

func (ModelEntry) isEntry()    {}
func (PipelineEntry) isEntry() {}
func (ResourceEntry) isEntry() {}
