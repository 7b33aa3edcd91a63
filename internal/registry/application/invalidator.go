package application

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/tracing"
)

// Invalidation lists what Invalidate removed.
type Invalidation struct {
	Models    []string
	Resources []string
}

// Invalidator removes the models and resources a package registered.
// Pipelines carry no provenance and are left alone.
type Invalidator struct {
	models    domain.ModelRepository
	resources domain.ResourceRepository
	changes   pubsub.Publisher[domain.Change]
	tracer    trace.Tracer
}

// NewInvalidator creates an invalidator. changes and tracer may be nil.
func NewInvalidator(models domain.ModelRepository, resources domain.ResourceRepository, changes pubsub.Publisher[domain.Change], tracer trace.Tracer) *Invalidator {
	return &Invalidator{
		models:    models,
		resources: resources,
		changes:   changes,
		tracer:    tracing.OrNoop(tracer),
	}
}

// Invalidate removes every model and resource whose app info names appID.
// Both removals are attempted; their errors are joined.
func (v *Invalidator) Invalidate(ctx context.Context, appID string) (Invalidation, error) {
	ctx, span := tracing.Start(ctx, v.tracer, tracing.SpanInvalidate, tracing.AttrPackageID, appID)
	defer span.End()

	var result Invalidation
	if appID == "" {
		return result, domain.ErrEmptyName
	}

	models, modelErr := v.models.DeleteModelsByApp(ctx, appID)
	if modelErr != nil {
		modelErr = fmt.Errorf("failed to invalidate models: %w", modelErr)
	}
	resources, resErr := v.resources.DeleteResourcesByApp(ctx, appID)
	if resErr != nil {
		resErr = fmt.Errorf("failed to invalidate resources: %w", resErr)
	}
	result.Models = models
	result.Resources = resources

	for _, name := range models {
		v.publish(domain.Change{Kind: domain.KindModel, Name: name, AppID: appID})
	}
	for _, name := range resources {
		v.publish(domain.Change{Kind: domain.KindResource, Name: name, AppID: appID})
	}

	err := errors.Join(modelErr, resErr)
	if err != nil {
		log.ErrorErr(log.CatRegistry, "Failed to invalidate package artifacts", err, "app_id", appID)
		tracing.Fail(span, err)
		return result, err
	}
	log.Info(log.CatRegistry, "Invalidated package artifacts",
		"app_id", appID, "models", len(models), "resources", len(resources))
	return result, nil
}

func (v *Invalidator) publish(change domain.Change) {
	if v.changes != nil {
		v.changes.Publish(pubsub.DeletedEvent, change)
	}
}
