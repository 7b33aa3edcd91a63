package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/presentation"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

var pipelineListCmd = &cobra.Command{
	Use:   "pipeline:list [name]",
	Short: "List registered pipelines",
	Long: `List every pipeline as JSON, ordered by name, or only the named one.

Examples:
  mlagent pipeline:list
  mlagent pipeline:list p1 | jq -r '.[0].description'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return runPipelineList(cmd.Context(), cfg, cmd.OutOrStdout(), name)
	},
}

var pipelineDeleteCmd = &cobra.Command{
	Use:   "pipeline:delete <name>",
	Short: "Delete a pipeline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRegistry(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return db.Pipelines().DeletePipeline(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(pipelineListCmd, pipelineDeleteCmd)
}

func runPipelineList(ctx context.Context, c config.Config, out io.Writer, name string) error {
	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	queries := newQueries(db)

	var pipelines []*domain.Pipeline
	if name != "" {
		p, err := queries.Pipeline(ctx, name)
		if err != nil {
			return err
		}
		pipelines = []*domain.Pipeline{p}
	} else {
		pipelines, err = queries.Pipelines(ctx)
		if err != nil {
			return err
		}
	}
	return presentation.NewFormatter(out).FormatPipelines(presentation.FromDomainPipelines(pipelines))
}
