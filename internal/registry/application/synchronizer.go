// Package application applies validated descriptor entries to the registry and
// serves cached registry reads.
package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/mlagent/internal/descriptor"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/tracing"
)

// Synchronizer turns entries into registry calls. Each Sync call is
// independent: a failure affects only that entry.
type Synchronizer struct {
	registry domain.Registry
	changes  pubsub.Publisher[domain.Change]
	tracer   trace.Tracer
}

// NewSynchronizer creates a synchronizer. changes and tracer may be nil.
func NewSynchronizer(registry domain.Registry, changes pubsub.Publisher[domain.Change], tracer trace.Tracer) *Synchronizer {
	return &Synchronizer{
		registry: registry,
		changes:  changes,
		tracer:   tracing.OrNoop(tracer),
	}
}

// Apply dispatches entry to the matching Sync method. The returned version is
// non-zero only for models.
func (s *Synchronizer) Apply(ctx context.Context, entry descriptor.Entry) (int, error) {
	switch e := entry.(type) {
	case descriptor.ModelEntry:
		return s.SyncModel(ctx, e)
	case descriptor.PipelineEntry:
		return 0, s.SyncPipeline(ctx, e)
	case descriptor.ResourceEntry:
		return 0, s.SyncResource(ctx, e)
	default:
		return 0, fmt.Errorf("unsupported entry type %T", entry)
	}
}

// SyncModel registers a new model version and returns its number. With
// ClearPrevious every existing version is removed first; a failed clear is
// logged and does not stop the add.
func (s *Synchronizer) SyncModel(ctx context.Context, e descriptor.ModelEntry) (int, error) {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanSync,
		tracing.AttrArtifactKind, string(descriptor.KindModel), tracing.AttrArtifactName, e.Name)
	defer span.End()

	appInfo, err := e.AppInfo.Marshal()
	if err != nil {
		tracing.Fail(span, err)
		return 0, err
	}

	if e.ClearPrevious {
		if err := s.registry.DeleteAllModelVersions(ctx, e.Name); err != nil {
			logClearFailure(span, "model", e.Name, err)
		} else {
			s.publish(pubsub.DeletedEvent, domain.Change{Kind: domain.KindModel, Name: e.Name, AppID: e.AppInfo.AppID})
		}
	}

	version, err := s.registry.AddModel(ctx, e.Name, e.Path, e.Active, e.Description, appInfo)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "Failed to register the model", err, "name", e.Name)
		tracing.Fail(span, err)
		return 0, fmt.Errorf("failed to register model %s: %w", e.Name, err)
	}

	span.SetAttributes(attribute.Int(tracing.AttrModelVersion, version))
	log.Info(log.CatRegistry, "The model is registered", "name", e.Name, "version", version, "active", e.Active)
	s.publish(pubsub.CreatedEvent, domain.Change{Kind: domain.KindModel, Name: e.Name, Version: version, AppID: e.AppInfo.AppID})
	return version, nil
}

// SyncPipeline stores or replaces the pipeline description.
func (s *Synchronizer) SyncPipeline(ctx context.Context, e descriptor.PipelineEntry) error {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanSync,
		tracing.AttrArtifactKind, string(descriptor.KindPipeline), tracing.AttrArtifactName, e.Name)
	defer span.End()

	if err := s.registry.SetPipeline(ctx, e.Name, e.Description); err != nil {
		log.ErrorErr(log.CatRegistry, "Failed to register pipeline", err, "name", e.Name)
		tracing.Fail(span, err)
		return fmt.Errorf("failed to register pipeline %s: %w", e.Name, err)
	}

	log.Info(log.CatRegistry, "The pipeline description is registered", "name", e.Name)
	s.publish(pubsub.UpdatedEvent, domain.Change{Kind: domain.KindPipeline, Name: e.Name})
	return nil
}

// SyncResource registers a resource path. With ClearPrevious every path under
// the name is removed first; a failed clear is logged and does not stop the add.
func (s *Synchronizer) SyncResource(ctx context.Context, e descriptor.ResourceEntry) error {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanSync,
		tracing.AttrArtifactKind, string(descriptor.KindResource), tracing.AttrArtifactName, e.Name)
	defer span.End()

	appInfo, err := e.AppInfo.Marshal()
	if err != nil {
		tracing.Fail(span, err)
		return err
	}

	if e.ClearPrevious {
		if err := s.registry.DeleteResource(ctx, e.Name); err != nil {
			logClearFailure(span, "resource", e.Name, err)
		} else {
			s.publish(pubsub.DeletedEvent, domain.Change{Kind: domain.KindResource, Name: e.Name, AppID: e.AppInfo.AppID})
		}
	}

	if err := s.registry.AddResource(ctx, e.Name, e.Path, e.Description, appInfo); err != nil {
		log.ErrorErr(log.CatRegistry, "Failed to register the resource", err, "name", e.Name)
		tracing.Fail(span, err)
		return fmt.Errorf("failed to register resource %s: %w", e.Name, err)
	}

	log.Info(log.CatRegistry, "The resource is registered", "name", e.Name, "path", e.Path)
	s.publish(pubsub.CreatedEvent, domain.Change{Kind: domain.KindResource, Name: e.Name, AppID: e.AppInfo.AppID})
	return nil
}

func (s *Synchronizer) publish(typ pubsub.EventType, change domain.Change) {
	if s.changes != nil {
		s.changes.Publish(typ, change)
	}
}

// logClearFailure records a failed clear-previous. Nothing to clear is the
// common case for a first install and is only worth a debug line.
func logClearFailure(span trace.Span, kind, name string, err error) {
	span.AddEvent(tracing.EventClearFailed, trace.WithAttributes(attribute.String(tracing.AttrErrorMessage, err.Error())))
	if domain.IsNotFound(err) {
		log.Debug(log.CatRegistry, "Nothing to clear", "kind", kind, "name", name)
		return
	}
	log.Warn(log.CatRegistry, "Failed to clear previous entries", "kind", kind, "name", name, "error", err.Error())
}
