package application

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

// === Mock Registry ===

type mockRegistry struct {
	mock.Mock
}

var _ domain.Registry = (*mockRegistry)(nil)

func (m *mockRegistry) AddModel(ctx context.Context, name, path string, active bool, description, appInfo string) (int, error) {
	args := m.Called(ctx, name, path, active, description, appInfo)
	return args.Int(0), args.Error(1)
}

func (m *mockRegistry) DeleteModel(ctx context.Context, name string, version int) error {
	return m.Called(ctx, name, version).Error(0)
}

func (m *mockRegistry) DeleteAllModelVersions(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockRegistry) SetPipeline(ctx context.Context, name, description string) error {
	return m.Called(ctx, name, description).Error(0)
}

func (m *mockRegistry) AddResource(ctx context.Context, name, path, description, appInfo string) error {
	return m.Called(ctx, name, path, description, appInfo).Error(0)
}

func (m *mockRegistry) DeleteResource(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

// === Recording Publisher ===

type publishedChange struct {
	Type   string
	Change domain.Change
}

type recordingPublisher struct {
	changes []publishedChange
}

func (p *recordingPublisher) Publish(typ pubsub.EventType, change domain.Change) {
	p.changes = append(p.changes, publishedChange{Type: string(typ), Change: change})
}
