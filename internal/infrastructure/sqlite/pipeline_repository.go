package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

const pipelineColumns = `name, description, created_at, updated_at`

// pipelineRepository implements domain.PipelineRepository using SQLite.
type pipelineRepository struct {
	db *sql.DB
}

func newPipelineRepository(db *sql.DB) *pipelineRepository {
	return &pipelineRepository{db: db}
}

var _ domain.PipelineRepository = (*pipelineRepository)(nil)

func scanPipeline(s scanner) (*PipelineRow, error) {
	var row PipelineRow
	err := s.Scan(&row.Name, &row.Description, &row.CreatedAt, &row.UpdatedAt)
	return &row, err
}

// SetPipeline inserts the pipeline or replaces its description.
func (r *pipelineRepository) SetPipeline(ctx context.Context, name, description string) error {
	if name == "" {
		return domain.ErrEmptyName
	}
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO pipelines (`+pipelineColumns+`) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET description = excluded.description, updated_at = excluded.updated_at`,
		name, description, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to set pipeline: %w", err)
	}
	return nil
}

// GetPipeline retrieves a pipeline by name.
func (r *pipelineRepository) GetPipeline(ctx context.Context, name string) (*domain.Pipeline, error) {
	row, err := scanPipeline(r.db.QueryRowContext(ctx,
		`SELECT `+pipelineColumns+` FROM pipelines WHERE name = ?`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.PipelineNotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", err)
	}
	return row.toDomain(), nil
}

// ListPipelines returns all pipelines ordered by name.
func (r *pipelineRepository) ListPipelines(ctx context.Context) ([]*domain.Pipeline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pipelineColumns+` FROM pipelines ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	pipelines := make([]*domain.Pipeline, 0)
	for rows.Next() {
		row, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		pipelines = append(pipelines, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pipelines: %w", err)
	}
	return pipelines, nil
}

// DeletePipeline removes a pipeline by name.
func (r *pipelineRepository) DeletePipeline(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &domain.PipelineNotFoundError{Name: name}
	}
	return nil
}
