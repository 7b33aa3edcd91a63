package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/presentation"
)

var resourceListCmd = &cobra.Command{
	Use:   "resource:list <name>",
	Short: "List the paths registered under a resource name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runResourceList(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	},
}

var resourceDeleteCmd = &cobra.Command{
	Use:   "resource:delete <name>",
	Short: "Delete every path registered under a resource name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Resources().DeleteResource(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(resourceListCmd, resourceDeleteCmd)
}

func runResourceList(ctx context.Context, c config.Config, out io.Writer, name string) error {
	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	resources, err := newQueries(db).Resources(ctx, name)
	if err != nil {
		return err
	}
	return presentation.NewFormatter(out).FormatResources(presentation.FromDomainResources(resources))
}
