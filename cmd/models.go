package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/zjrosen/mlagent/internal/config"
	"github.com/zjrosen/mlagent/internal/presentation"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

var modelActiveOnly bool

var modelListCmd = &cobra.Command{
	Use:   "model:list <name>",
	Short: "List the registered versions of a model",
	Long: `List every version of a model as JSON, oldest first.

Examples:
  mlagent model:list m1
  mlagent model:list m1 --active
  mlagent model:list m1 | jq '.[] | select(.active) | .path'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runModelList(cmd.Context(), cfg, cmd.OutOrStdout(), args[0], modelActiveOnly)
	},
}

var modelActivateCmd = &cobra.Command{
	Use:   "model:activate <name> <version>",
	Short: "Make one version the active version of a model",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		return withModels(cfg, func(models domain.ModelRepository) error {
			return models.ActivateModel(cmd.Context(), args[0], version)
		})
	},
}

var modelDescribeCmd = &cobra.Command{
	Use:   "model:describe <name> <version> <description>",
	Short: "Replace the description of a model version",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := parseVersion(args[1])
		if err != nil {
			return err
		}
		return withModels(cfg, func(models domain.ModelRepository) error {
			return models.UpdateModelDescription(cmd.Context(), args[0], version, args[2])
		})
	},
}

var modelDeleteCmd = &cobra.Command{
	Use:   "model:delete <name> [version]",
	Short: "Delete one version of a model, or every version",
	Long: `Delete a single version of a model, or every version when no version is
given. The active version cannot be deleted on its own.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withModels(cfg, func(models domain.ModelRepository) error {
			if len(args) == 1 {
				return models.DeleteAllModelVersions(cmd.Context(), args[0])
			}
			version, err := parseVersion(args[1])
			if err != nil {
				return err
			}
			return models.DeleteModel(cmd.Context(), args[0], version)
		})
	},
}

func init() {
	rootCmd.AddCommand(modelListCmd, modelActivateCmd, modelDescribeCmd, modelDeleteCmd)

	modelListCmd.Flags().BoolVarP(&modelActiveOnly, "active", "a", false, "show only the active version")
}

func runModelList(ctx context.Context, c config.Config, out io.Writer, name string, activeOnly bool) error {
	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	queries := newQueries(db)

	var models []*domain.Model
	if activeOnly {
		m, err := queries.ActiveModel(ctx, name)
		if err != nil {
			return err
		}
		models = []*domain.Model{m}
	} else {
		models, err = queries.ModelVersions(ctx, name)
		if err != nil {
			return err
		}
	}
	return presentation.NewFormatter(out).FormatModels(presentation.FromDomainModels(models))
}

func withModels(c config.Config, fn func(domain.ModelRepository) error) error {
	db, err := openRegistry(c)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if err := fn(db.Models()); err != nil {
		return fmt.Errorf("model registry: %w", err)
	}
	return nil
}
