package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

const resourceColumns = `name, path, description, app_info, created_at, updated_at`

// resourceRepository implements domain.ResourceRepository using SQLite.
type resourceRepository struct {
	db *sql.DB
}

func newResourceRepository(db *sql.DB) *resourceRepository {
	return &resourceRepository{db: db}
}

var _ domain.ResourceRepository = (*resourceRepository)(nil)

func scanResource(s scanner) (*ResourceRow, error) {
	var row ResourceRow
	err := s.Scan(&row.Name, &row.Path, &row.Description, &row.AppInfo, &row.CreatedAt, &row.UpdatedAt)
	return &row, err
}

// AddResource inserts the (name, path) pair or refreshes its description and app info.
func (r *resourceRepository) AddResource(ctx context.Context, name, path, description, appInfo string) error {
	if name == "" {
		return domain.ErrEmptyName
	}
	if path == "" {
		return domain.ErrEmptyPath
	}
	now := time.Now().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO resources (`+resourceColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, path) DO UPDATE SET
			description = excluded.description,
			app_info = excluded.app_info,
			updated_at = excluded.updated_at`,
		name, path, description, appInfo, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to add resource: %w", err)
	}
	return nil
}

// GetResources returns every path registered under name.
func (r *resourceRepository) GetResources(ctx context.Context, name string) ([]*domain.Resource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM resources WHERE name = ? ORDER BY path`, name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resources []*domain.Resource
	for rows.Next() {
		row, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resources: %w", err)
	}
	if len(resources) == 0 {
		return nil, &domain.ResourceNotFoundError{Name: name}
	}
	return resources, nil
}

// DeleteResource removes every path registered under name.
func (r *resourceRepository) DeleteResource(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM resources WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &domain.ResourceNotFoundError{Name: name}
	}
	return nil
}

// DeleteResourcesByApp removes every resource whose app info names appID.
func (r *resourceRepository) DeleteResourcesByApp(ctx context.Context, appID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	names, err := distinctNames(ctx, tx, `SELECT DISTINCT name FROM resources WHERE `+appIDMatch+` ORDER BY name`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to find resources for app: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM resources WHERE `+appIDMatch, appID); err != nil {
		return nil, fmt.Errorf("failed to delete resources for app: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return names, nil
}
