package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/mlagent/internal/descriptor"
	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/testutil"
)

func TestQueryService_CachesUntilChangePublished(t *testing.T) {
	db := testutil.NewRegistryDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := pubsub.NewBroker[domain.Change]()
	defer broker.Close()

	q := NewQueryService(QueryServiceConfig{
		Models:    db.Models(),
		Pipelines: db.Pipelines(),
		Resources: db.Resources(),
		Changes:   broker,
		TTL:       time.Hour,
	})
	q.Start(ctx)

	sync := NewSynchronizer(db.Registry(), broker, nil)
	_, err := sync.SyncModel(ctx, descriptor.ModelEntry{Name: "m1", Path: "/v1", Active: true, AppInfo: testInfo})
	require.NoError(t, err)

	m, err := q.ActiveModel(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, 1, m.Version)

	// A write that bypasses the bus is not seen while cached.
	_, err = db.Models().AddModel(ctx, "m1", "/v2", true, "", "")
	require.NoError(t, err)
	m, err = q.ActiveModel(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, 1, m.Version)

	// A write through the synchronizer evicts.
	_, err = sync.SyncModel(ctx, descriptor.ModelEntry{Name: "m1", Path: "/v3", Active: true, AppInfo: testInfo})
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		m, err := q.ActiveModel(ctx, "m1")
		return err == nil && m.Version == 3
	}, time.Second, 10*time.Millisecond)
}

func TestQueryService_PipelineEviction(t *testing.T) {
	db := testutil.NewRegistryDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := pubsub.NewBroker[domain.Change]()
	defer broker.Close()

	q := NewQueryService(QueryServiceConfig{
		Models: db.Models(), Pipelines: db.Pipelines(), Resources: db.Resources(),
		Changes: broker, TTL: time.Hour,
	})
	q.Start(ctx)
	sync := NewSynchronizer(db.Registry(), broker, nil)

	require.NoError(t, sync.SyncPipeline(ctx, descriptor.PipelineEntry{Name: "p1", Description: "old"}))
	p, err := q.Pipeline(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "old", p.Description)

	require.NoError(t, sync.SyncPipeline(ctx, descriptor.PipelineEntry{Name: "p1", Description: "new"}))
	require.Eventually(t, func() bool {
		p, err := q.Pipeline(ctx, "p1")
		return err == nil && p.Description == "new"
	}, time.Second, 10*time.Millisecond)
}

func TestQueryService_NotFoundNotCached(t *testing.T) {
	db := testutil.NewRegistryDB(t)
	ctx := context.Background()

	q := NewQueryService(QueryServiceConfig{
		Models: db.Models(), Pipelines: db.Pipelines(), Resources: db.Resources(), TTL: time.Hour,
	})

	_, err := q.ActiveModel(ctx, "m1")
	require.True(t, domain.IsNotFound(err))

	_, err = db.Models().AddModel(ctx, "m1", "/p", true, "", "")
	require.NoError(t, err)

	m, err := q.ActiveModel(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, 1, m.Version)
}

func TestQueryService_NoCache(t *testing.T) {
	db := testutil.NewRegistryDB(t)
	ctx := context.Background()

	q := NewQueryService(QueryServiceConfig{Models: db.Models(), Pipelines: db.Pipelines(), Resources: db.Resources()})
	q.Start(ctx)

	_, err := db.Models().AddModel(ctx, "m1", "/a", true, "", "")
	require.NoError(t, err)
	_, err = q.ActiveModel(ctx, "m1")
	require.NoError(t, err)

	_, err = db.Models().AddModel(ctx, "m1", "/b", true, "", "")
	require.NoError(t, err)
	m, err := q.ActiveModel(ctx, "m1")
	require.NoError(t, err)
	require.Equal(t, 2, m.Version)

	versions, err := q.ModelVersions(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, versions, 2)

	one, err := q.Model(ctx, "m1", 1)
	require.NoError(t, err)
	require.Equal(t, "/a", one.Path)

	all, err := q.Pipelines(ctx)
	require.NoError(t, err)
	require.Empty(t, all)

	_, err = q.Resources(ctx, "none")
	require.True(t, domain.IsNotFound(err))
}

func TestQueryService_OnChangeSeesEvictedCache(t *testing.T) {
	db := testutil.NewRegistryDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := pubsub.NewBroker[domain.Change]()
	defer broker.Close()

	seen := make(chan int, 4)
	var q *QueryService
	q = NewQueryService(QueryServiceConfig{
		Models: db.Models(), Pipelines: db.Pipelines(), Resources: db.Resources(),
		Changes: broker, TTL: time.Hour,
		OnChange: func(ctx context.Context, ev pubsub.Event[domain.Change]) {
			if ev.Type != pubsub.CreatedEvent || ev.Payload.Kind != domain.KindModel {
				return
			}
			m, err := q.ActiveModel(ctx, ev.Payload.Name)
			if err == nil {
				seen <- m.Version
			}
		},
	})
	q.Start(ctx)

	sync := NewSynchronizer(db.Registry(), broker, nil)
	for want, path := range []string{"/v1", "/v2"} {
		_, err := sync.SyncModel(ctx, descriptor.ModelEntry{Name: "m1", Path: path, Active: true, AppInfo: testInfo})
		require.NoError(t, err)
		select {
		case got := <-seen:
			require.Equal(t, want+1, got)
		case <-time.After(time.Second):
			t.Fatalf("no change callback for %s", path)
		}
	}
}
