package pkgmgr

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/mlagent/internal/flags"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/paths"
	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/tracing"
)

// DefaultCategory is the package category whose events the router handles.
const DefaultCategory = "rpk"

// Ingester registers the descriptors found under a package resource root.
type Ingester interface {
	IngestAll(ctx context.Context, root string, info domain.AppInfo) application.Report
}

// Invalidator removes the registry entries of a package.
type Invalidator interface {
	Invalidate(ctx context.Context, appID string) (application.Invalidation, error)
}

// RouterConfig configures a Router. Empty paths and category use the defaults.
type RouterConfig struct {
	Category        string
	PackageRoot     string
	ResourceSubpath string
	Lookup          Lookup
	Ingester        Ingester
	Invalidator     Invalidator // required only with FlagInvalidateOnUninstall
	Flags           *flags.Registry
	Tracer          trace.Tracer
}

// Router decides what registry work a lifecycle event triggers.
type Router struct {
	category    string
	packageRoot string
	subpath     string
	lookup      Lookup
	ingester    Ingester
	invalidator Invalidator
	flags       *flags.Registry
	tracer      trace.Tracer
}

// NewRouter creates a router.
func NewRouter(cfg RouterConfig) *Router {
	r := &Router{
		category:    cfg.Category,
		packageRoot: cfg.PackageRoot,
		subpath:     cfg.ResourceSubpath,
		lookup:      cfg.Lookup,
		ingester:    cfg.Ingester,
		invalidator: cfg.Invalidator,
		flags:       cfg.Flags,
		tracer:      tracing.OrNoop(cfg.Tracer),
	}
	if r.category == "" {
		r.category = DefaultCategory
	}
	if r.packageRoot == "" {
		r.packageRoot = paths.DefaultPackageRoot
	}
	if r.subpath == "" {
		r.subpath = paths.DefaultResourceSubpath
	}
	return r
}

// Handle processes one event to completion. Failures are logged, never returned.
func (r *Router) Handle(ctx context.Context, ev LifecycleEvent) {
	if ev.Kind == KindResourceCopy {
		log.Debug(log.CatPkg, "Ignoring resource copy event", "package", ev.PackageID, "phase", ev.Phase)
		return
	}
	if !strings.EqualFold(ev.Category, r.category) {
		return
	}

	ctx, span := tracing.Start(ctx, r.tracer, tracing.SpanHandleEvent,
		tracing.AttrEventID, ev.ID,
		tracing.AttrPackageID, ev.PackageID,
		tracing.AttrPackageKind, string(ev.Kind),
		tracing.AttrPackagePhase, string(ev.Phase),
	)
	defer span.End()

	if err := paths.ValidatePackageID(ev.PackageID); err != nil {
		log.ErrorErr(log.CatPkg, "Rejected event", err, "event", ev.ID)
		tracing.Fail(span, err)
		return
	}

	switch {
	case ev.Kind == KindInstall && ev.Phase == PhaseCompleted:
		log.Info(log.CatPkg, "Package installed", "package", ev.PackageID, "event", ev.ID)
		r.install(ctx, span, ev.PackageID)

	case ev.Kind == KindUninstall && ev.Phase == PhaseStarted:
		log.Info(log.CatPkg, "Package uninstall started", "package", ev.PackageID, "event", ev.ID)
		r.listResources(ev.PackageID)
		if r.flags.Enabled(flags.FlagInvalidateOnUninstall) {
			r.invalidate(ctx, span, ev.PackageID)
		}

	case ev.Kind == KindUpdate && ev.Phase == PhaseCompleted:
		log.Info(log.CatPkg, "Package updated", "package", ev.PackageID, "event", ev.ID)
		r.listResources(ev.PackageID)
		if r.flags.Enabled(flags.FlagResyncOnUpdate) {
			r.install(ctx, span, ev.PackageID)
		}

	default:
		log.Debug(log.CatPkg, "No action for event", "package", ev.PackageID, "kind", ev.Kind, "phase", ev.Phase)
	}
}

func (r *Router) install(ctx context.Context, span trace.Span, packageID string) {
	info, err := r.lookup.Lookup(ctx, packageID)
	if err != nil {
		log.ErrorErr(log.CatPkg, "Failed to look up package resource info", err, "package", packageID)
		tracing.Fail(span, err)
		return
	}
	if err := paths.ValidateResType(info.ResType); err != nil {
		log.ErrorErr(log.CatPkg, "Rejected package resource type", err, "package", packageID)
		tracing.Fail(span, err)
		return
	}

	root := paths.ResourceRoot(r.packageRoot, r.subpath, packageID, info.ResType)
	appInfo := domain.ComposeAppInfo(packageID, info.ResType, info.ResVersion)
	report := r.ingester.IngestAll(ctx, root, appInfo)
	log.Info(log.CatPkg, "Package resources synchronized",
		"package", packageID, "res_type", info.ResType, "registered", report.Registered())
}

func (r *Router) invalidate(ctx context.Context, span trace.Span, packageID string) {
	if r.invalidator == nil {
		log.Warn(log.CatPkg, "Uninstall invalidation enabled without an invalidator", "package", packageID)
		return
	}
	if _, err := r.invalidator.Invalidate(ctx, packageID); err != nil {
		tracing.Fail(span, err)
	}
}

// listResources logs the package resource directory.
func (r *Router) listResources(packageID string) {
	dir := paths.ResourceDir(r.packageRoot, r.subpath, packageID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn(log.CatPkg, "Cannot list package resources", "dir", dir, "error", err)
		return
	}
	for _, e := range entries {
		log.Info(log.CatPkg, "Package resource", "path", filepath.Join(dir, e.Name()), "dir", e.IsDir())
	}
}
