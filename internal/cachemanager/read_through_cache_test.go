package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockLoader struct {
	mock.Mock
}

func (m *mockLoader) Load(ctx context.Context, name string) (artifact, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(artifact), args.Error(1)
}

func newCache() *InMemoryCacheManager[cacheKey, artifact] {
	return NewInMemoryCacheManager[cacheKey, artifact]("test", DefaultExpiration, DefaultCleanupInterval)
}

func TestReadThroughCache_LoadsOnceThenHits(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, "m1").Return(artifact{Name: "m1", Version: 1}, nil).Once()

	rt := NewReadThroughCache[cacheKey, artifact, string](newCache(), loader.Load, false)

	for range 3 {
		got, err := rt.Get(context.Background(), "model:m1", "m1", time.Minute)
		require.NoError(t, err)
		require.Equal(t, 1, got.Version)
	}
	loader.AssertExpectations(t)
}

func TestReadThroughCache_ErrorsNotCached(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, "m1").Return(artifact{}, errors.New("db down")).Once()
	loader.On("Load", mock.Anything, "m1").Return(artifact{Name: "m1", Version: 4}, nil).Once()

	rt := NewReadThroughCache[cacheKey, artifact, string](newCache(), loader.Load, false)

	_, err := rt.Get(context.Background(), "model:m1", "m1", time.Minute)
	require.Error(t, err)

	got, err := rt.Get(context.Background(), "model:m1", "m1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 4, got.Version)
	loader.AssertExpectations(t)
}

func TestReadThroughCache_Invalidate(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, "m1").Return(artifact{Name: "m1", Version: 1}, nil).Once()
	loader.On("Load", mock.Anything, "m1").Return(artifact{Name: "m1", Version: 2}, nil).Once()

	rt := NewReadThroughCache[cacheKey, artifact, string](newCache(), loader.Load, false)
	ctx := context.Background()

	_, err := rt.Get(ctx, "model:m1", "m1", time.Minute)
	require.NoError(t, err)

	rt.Invalidate(ctx, "model:m1")

	got, err := rt.Get(ctx, "model:m1", "m1", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, got.Version)
	loader.AssertExpectations(t)
}

func TestReadThroughCache_Skip(t *testing.T) {
	loader := &mockLoader{}
	loader.On("Load", mock.Anything, "m1").Return(artifact{Name: "m1"}, nil).Twice()

	cache := newCache()
	rt := NewReadThroughCache[cacheKey, artifact, string](cache, loader.Load, true)

	for range 2 {
		_, err := rt.Get(context.Background(), "model:m1", "m1", time.Minute)
		require.NoError(t, err)
	}
	require.Zero(t, cache.Len())
	loader.AssertExpectations(t)
}
