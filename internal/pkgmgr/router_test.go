package pkgmgr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/mlagent/internal/flags"
	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

type routerFixture struct {
	root        string
	lookup      *mockLookup
	ingester    *mockIngester
	invalidator *mockInvalidator
	router      *Router
}

func newRouterFixture(t *testing.T, enabled ...string) *routerFixture {
	t.Helper()
	f := &routerFixture{
		root:        t.TempDir(),
		lookup:      &mockLookup{},
		ingester:    &mockIngester{},
		invalidator: &mockInvalidator{},
	}
	set := map[string]bool{}
	for _, name := range enabled {
		set[name] = true
	}
	f.router = NewRouter(RouterConfig{
		PackageRoot: f.root,
		Lookup:      f.lookup,
		Ingester:    f.ingester,
		Invalidator: f.invalidator,
		Flags:       flags.New(set),
	})
	t.Cleanup(func() {
		f.lookup.AssertExpectations(t)
		f.ingester.AssertExpectations(t)
		f.invalidator.AssertExpectations(t)
	})
	return f
}

func (f *routerFixture) expectInstall(pkg string) {
	f.lookup.On("Lookup", mock.Anything, pkg).Return(ResourceInfo{ResType: "rpk", ResVersion: "2"}, nil).Once()
	f.ingester.On("IngestAll", mock.Anything,
		filepath.Join(f.root, pkg, "res/global", "rpk"),
		domain.ComposeAppInfo(pkg, "rpk", "2"),
	).Return(application.Report{}).Once()
}

func TestRouter_InstallCompletedIngests(t *testing.T) {
	f := newRouterFixture(t)
	f.expectInstall("app1")

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindInstall, PhaseCompleted))
}

func TestRouter_CategoryCaseInsensitive(t *testing.T) {
	f := newRouterFixture(t)
	f.expectInstall("app1")

	f.router.Handle(context.Background(), NewEvent("RPK", "app1", KindInstall, PhaseCompleted))
}

func TestRouter_IgnoresOtherCategories(t *testing.T) {
	f := newRouterFixture(t)

	f.router.Handle(context.Background(), NewEvent("tpk", "app1", KindInstall, PhaseCompleted))
	f.lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestRouter_IgnoresResourceCopy(t *testing.T) {
	f := newRouterFixture(t)

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindResourceCopy, PhaseCompleted))
	f.lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestRouter_LookupFailureAbortsEvent(t *testing.T) {
	f := newRouterFixture(t)
	f.lookup.On("Lookup", mock.Anything, "app1").Return(ResourceInfo{}, errors.New("no such package")).Once()

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindInstall, PhaseCompleted))
	f.ingester.AssertNotCalled(t, "IngestAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_RejectsEscapingResType(t *testing.T) {
	f := newRouterFixture(t)
	f.lookup.On("Lookup", mock.Anything, "app1").Return(ResourceInfo{ResType: "../../x", ResVersion: "1"}, nil).Once()

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindInstall, PhaseCompleted))
	f.ingester.AssertNotCalled(t, "IngestAll", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_RejectsUnsafePackageID(t *testing.T) {
	f := newRouterFixture(t)

	f.router.Handle(context.Background(), NewEvent("rpk", "../app1", KindInstall, PhaseCompleted))
	f.lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestRouter_OtherPhasesAreNoops(t *testing.T) {
	f := newRouterFixture(t, flags.FlagInvalidateOnUninstall, flags.FlagResyncOnUpdate)

	for _, ev := range []LifecycleEvent{
		NewEvent("rpk", "app1", KindInstall, PhaseStarted),
		NewEvent("rpk", "app1", KindInstall, PhaseProcessing),
		NewEvent("rpk", "app1", KindInstall, PhaseFailed),
		NewEvent("rpk", "app1", KindUninstall, PhaseCompleted),
		NewEvent("rpk", "app1", KindUpdate, PhaseStarted),
		NewEvent("rpk", "app1", KindUnknown, PhaseUnknown),
	} {
		f.router.Handle(context.Background(), ev)
	}
	f.lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
	f.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestRouter_UninstallObservesByDefault(t *testing.T) {
	f := newRouterFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.root, "app1", "res/global", "rpk"), 0700))

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindUninstall, PhaseStarted))
	f.invalidator.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestRouter_UninstallInvalidatesWhenFlagged(t *testing.T) {
	f := newRouterFixture(t, flags.FlagInvalidateOnUninstall)
	f.invalidator.On("Invalidate", mock.Anything, "app1").Return(application.Invalidation{Models: []string{"m1"}}, nil).Once()

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindUninstall, PhaseStarted))
}

func TestRouter_UpdateObservesByDefault(t *testing.T) {
	f := newRouterFixture(t)

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindUpdate, PhaseCompleted))
	f.lookup.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything)
}

func TestRouter_UpdateResyncsWhenFlagged(t *testing.T) {
	f := newRouterFixture(t, flags.FlagResyncOnUpdate)
	f.expectInstall("app1")

	f.router.Handle(context.Background(), NewEvent("rpk", "app1", KindUpdate, PhaseCompleted))
}

func TestRouter_CustomCategoryAndSubpath(t *testing.T) {
	root := t.TempDir()
	lookup := &mockLookup{}
	ingester := &mockIngester{}
	lookup.On("Lookup", mock.Anything, "app1").Return(ResourceInfo{ResType: "vision", ResVersion: "1"}, nil).Once()
	ingester.On("IngestAll", mock.Anything, filepath.Join(root, "app1", "shared", "vision"), mock.Anything).
		Return(application.Report{}).Once()

	r := NewRouter(RouterConfig{
		Category:        "mlpkg",
		PackageRoot:     root,
		ResourceSubpath: "shared",
		Lookup:          lookup,
		Ingester:        ingester,
	})
	r.Handle(context.Background(), NewEvent("rpk", "app1", KindInstall, PhaseCompleted))
	r.Handle(context.Background(), NewEvent("MLPKG", "app1", KindInstall, PhaseCompleted))

	lookup.AssertExpectations(t)
	ingester.AssertExpectations(t)
}
