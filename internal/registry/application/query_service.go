package application

import (
	"context"
	"time"

	"github.com/zjrosen/mlagent/internal/cachemanager"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

type cacheKey string

func activeModelKey(name string) cacheKey { return cacheKey("model:active:" + name) }
func pipelineKey(name string) cacheKey    { return cacheKey("pipeline:" + name) }

// QueryService answers registry reads. Active-model and pipeline lookups are
// cached and evicted when a change for the same name is published.
type QueryService struct {
	models    domain.ModelRepository
	pipelines domain.PipelineRepository
	resources domain.ResourceRepository
	changes   pubsub.Subscriber[domain.Change]
	onChange  func(context.Context, pubsub.Event[domain.Change])
	ttl       time.Duration

	active   *cachemanager.ReadThroughCache[cacheKey, *domain.Model, string]
	pipeline *cachemanager.ReadThroughCache[cacheKey, *domain.Pipeline, string]
}

// QueryServiceConfig configures a QueryService. A zero TTL disables caching;
// a nil Changes leaves the caches without invalidation, so callers should
// disable caching in that case.
type QueryServiceConfig struct {
	Models    domain.ModelRepository
	Pipelines domain.PipelineRepository
	Resources domain.ResourceRepository
	Changes   pubsub.Subscriber[domain.Change]
	TTL       time.Duration
	// OnChange, if set, runs after each change has been evicted.
	OnChange func(context.Context, pubsub.Event[domain.Change])
}

// NewQueryService creates a query service.
func NewQueryService(cfg QueryServiceConfig) *QueryService {
	skip := cfg.TTL <= 0
	q := &QueryService{
		models:    cfg.Models,
		pipelines: cfg.Pipelines,
		resources: cfg.Resources,
		changes:   cfg.Changes,
		onChange:  cfg.OnChange,
		ttl:       cfg.TTL,
	}
	q.active = cachemanager.NewReadThroughCache[cacheKey, *domain.Model, string](
		cachemanager.NewInMemoryCacheManager[cacheKey, *domain.Model]("active-models", cfg.TTL, cachemanager.DefaultCleanupInterval),
		q.models.GetActiveModel,
		skip,
	)
	q.pipeline = cachemanager.NewReadThroughCache[cacheKey, *domain.Pipeline, string](
		cachemanager.NewInMemoryCacheManager[cacheKey, *domain.Pipeline]("pipelines", cfg.TTL, cachemanager.DefaultCleanupInterval),
		q.pipelines.GetPipeline,
		skip,
	)
	return q
}

// Start subscribes to registry changes and evicts cached entries until ctx is
// cancelled or the broker closes. The subscription is active when Start returns.
func (q *QueryService) Start(ctx context.Context) {
	if q.changes == nil {
		return
	}
	events := q.changes.Subscribe(ctx)
	go func() {
		for ev := range events {
			q.evict(ctx, ev.Payload)
			if q.onChange != nil {
				q.onChange(ctx, ev)
			}
		}
	}()
}

func (q *QueryService) evict(ctx context.Context, change domain.Change) {
	switch change.Kind {
	case domain.KindModel:
		q.active.Invalidate(ctx, activeModelKey(change.Name))
	case domain.KindPipeline:
		q.pipeline.Invalidate(ctx, pipelineKey(change.Name))
	default:
		return
	}
	log.Debug(log.CatCache, "Evicted after registry change", "kind", change.Kind, "name", change.Name)
}

// ActiveModel returns the active version of name.
func (q *QueryService) ActiveModel(ctx context.Context, name string) (*domain.Model, error) {
	return q.active.Get(ctx, activeModelKey(name), name, q.ttl)
}

// Pipeline returns the pipeline stored under name.
func (q *QueryService) Pipeline(ctx context.Context, name string) (*domain.Pipeline, error) {
	return q.pipeline.Get(ctx, pipelineKey(name), name, q.ttl)
}

// Model returns one version of name.
func (q *QueryService) Model(ctx context.Context, name string, version int) (*domain.Model, error) {
	return q.models.GetModel(ctx, name, version)
}

// ModelVersions returns every version of name.
func (q *QueryService) ModelVersions(ctx context.Context, name string) ([]*domain.Model, error) {
	return q.models.ListModels(ctx, name)
}

// Pipelines returns all pipelines.
func (q *QueryService) Pipelines(ctx context.Context) ([]*domain.Pipeline, error) {
	return q.pipelines.ListPipelines(ctx)
}

// Resources returns every path registered under name.
func (q *QueryService) Resources(ctx context.Context, name string) ([]*domain.Resource, error) {
	return q.resources.GetResources(ctx, name)
}
