package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/flags"
	"github.com/zjrosen/mlagent/internal/infrastructure/sqlite"
	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/pkgmgr"
	"github.com/zjrosen/mlagent/internal/pubsub"
	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
	"github.com/zjrosen/mlagent/internal/tracing"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the registry synchronizer",
	Long: `Run the synchronizer in the foreground. Lifecycle events are read from
JSON files dropped in the spool directory (see 'mlagent notify'), and the
descriptors of each installed resource package are registered.

SIGINT and SIGTERM stop the daemon after the event in progress.

Example:
  mlagent daemon
  mlagent daemon --db /tmp/mlagent.db -v`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDaemon(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}

// daemon holds everything the running synchronizer owns.
type daemon struct {
	tracer  *tracing.Provider
	db      *sqlite.DB
	changes *pubsub.Broker[domain.Change]
	queries *application.QueryService
	sub     *pkgmgr.Subscription
}

// startDaemon wires the store, the change bus, the router and the spool
// subscription. The returned daemon is running.
func startDaemon(ctx context.Context, c config.Config) (*daemon, error) {
	tp, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}
	d := &daemon{tracer: tp}

	d.db, err = sqlite.NewDB(c.DBPath)
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("opening registry: %w", err)
	}

	d.changes = pubsub.NewBroker[domain.Change]()
	d.queries = application.NewQueryService(application.QueryServiceConfig{
		Models:    d.db.Models(),
		Pipelines: d.db.Pipelines(),
		Resources: d.db.Resources(),
		Changes:   d.changes,
		TTL:       c.Cache.TTL,
		OnChange:  d.logChange,
	})
	d.queries.Start(ctx)

	sync := application.NewSynchronizer(d.db.Registry(), d.changes, tp.Tracer())
	router := pkgmgr.NewRouter(pkgmgr.RouterConfig{
		Category:        c.PackageCategory,
		PackageRoot:     c.PackageRoot,
		ResourceSubpath: c.ResourceSubpath,
		Lookup:          pkgmgr.NewManifestLookup(c.PackageRoot),
		Ingester:        application.NewIngester(sync, tp.Tracer()),
		Invalidator:     application.NewInvalidator(d.db.Models(), d.db.Resources(), d.changes, tp.Tracer()),
		Flags:           flags.New(c.Flags),
		Tracer:          tp.Tracer(),
	})

	src, err := pkgmgr.NewSpoolSource(pkgmgr.SpoolConfig{Dir: c.SpoolDir, Debounce: c.SpoolDebounce})
	if err != nil {
		d.stop()
		return nil, fmt.Errorf("opening event spool: %w", err)
	}
	d.sub = pkgmgr.Subscribe(ctx, src, router)

	log.Info(log.CatConfig, "mlagent daemon started",
		"db", c.DBPath, "spool", c.SpoolDir, "package_root", c.PackageRoot, "category", c.PackageCategory)
	return d, nil
}

// stop releases everything in reverse order of creation.
func (d *daemon) stop() {
	if d.sub != nil {
		if err := d.sub.Close(); err != nil {
			log.ErrorErr(log.CatWatcher, "Error closing event spool", err)
		}
	}
	if d.changes != nil {
		d.changes.Close()
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			log.ErrorErr(log.CatDB, "Error closing registry", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.tracer.Shutdown(shutdownCtx); err != nil {
		log.ErrorErr(log.CatTrace, "Error flushing traces", err)
	}
}

func runDaemon(ctx context.Context, c config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := startDaemon(ctx, c)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Info(log.CatConfig, "Shutting down")
	case <-d.sub.Done():
		log.Warn(log.CatWatcher, "Event source stopped")
	}

	d.stop()
	log.Info(log.CatConfig, "mlagent daemon stopped")
	return nil
}

// logChange records a registry change. Model changes also report which
// version is now active, read through the query cache.
func (d *daemon) logChange(ctx context.Context, ev pubsub.Event[domain.Change]) {
	c := ev.Payload
	log.Debug(log.CatRegistry, "Registry changed",
		"op", ev.Type, "kind", c.Kind, "name", c.Name, "version", c.Version, "app_id", c.AppID)
	if c.Kind != domain.KindModel {
		return
	}
	active, err := d.queries.ActiveModel(ctx, c.Name)
	switch {
	case err == nil:
		log.Info(log.CatRegistry, "Active model", "name", c.Name, "version", active.Version)
	case domain.IsNotFound(err):
		log.Debug(log.CatRegistry, "No active model", "name", c.Name)
	default:
		log.ErrorErr(log.CatRegistry, "Failed to read the active model", err, "name", c.Name)
	}
}
