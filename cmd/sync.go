package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/paths"
	"github.com/zjrosen/mlagent/internal/pkgmgr"
	"github.com/zjrosen/mlagent/internal/presentation"
	"github.com/zjrosen/mlagent/internal/registry/application"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

var syncCmd = &cobra.Command{
	Use:   "sync <package_id>",
	Short: "Register the descriptors of an installed package now",
	Long: `Run the install-completed pass for one package without the daemon and
print the per-kind report as JSON.

Example:
  mlagent sync app1 | jq '.kinds[] | {kind, registered, skipped}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	},
}

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <package_id>",
	Short: "Remove the models and resources registered from a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInvalidate(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(invalidateCmd)
}

func runSync(ctx context.Context, c config.Config, out io.Writer, packageID string) error {
	if err := paths.ValidatePackageID(packageID); err != nil {
		return err
	}
	info, err := pkgmgr.NewManifestLookup(c.PackageRoot).Lookup(ctx, packageID)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", packageID, err)
	}

	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	root := paths.ResourceRoot(c.PackageRoot, c.ResourceSubpath, packageID, info.ResType)
	ingester := application.NewIngester(application.NewSynchronizer(db.Registry(), nil, nil), nil)
	report := ingester.IngestAll(ctx, root, domain.ComposeAppInfo(packageID, info.ResType, info.ResVersion))

	return presentation.NewFormatter(out).FormatReport(presentation.FromReport(report))
}

func runInvalidate(ctx context.Context, c config.Config, out io.Writer, packageID string) error {
	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	inv, err := application.NewInvalidator(db.Models(), db.Resources(), nil, nil).Invalidate(ctx, packageID)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(out).Format(presentation.FromInvalidation(packageID, inv))
}
