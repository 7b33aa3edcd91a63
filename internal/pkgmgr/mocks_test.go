package pkgmgr

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

// === Mock Lookup ===

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Lookup(ctx context.Context, packageID string) (ResourceInfo, error) {
	args := m.Called(ctx, packageID)
	return args.Get(0).(ResourceInfo), args.Error(1)
}

// === Mock Ingester ===

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) IngestAll(ctx context.Context, root string, info domain.AppInfo) application.Report {
	args := m.Called(ctx, root, info)
	return args.Get(0).(application.Report)
}

// === Mock Invalidator ===

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, appID string) (application.Invalidation, error) {
	args := m.Called(ctx, appID)
	return args.Get(0).(application.Invalidation), args.Error(1)
}
