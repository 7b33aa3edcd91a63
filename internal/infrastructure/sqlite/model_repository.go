package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/zjrosen/mlagent/internal/registry/domain"
)

const modelColumns = `name, version, path, description, app_info, active, created_at, updated_at`

// modelRepository implements domain.ModelRepository using SQLite.
type modelRepository struct {
	db *sql.DB
}

func newModelRepository(db *sql.DB) *modelRepository {
	return &modelRepository{db: db}
}

// Ensure modelRepository implements domain.ModelRepository.
var _ domain.ModelRepository = (*modelRepository)(nil)

func scanModel(s scanner) (*ModelRow, error) {
	var row ModelRow
	err := s.Scan(&row.Name, &row.Version, &row.Path, &row.Description,
		&row.AppInfo, &row.Active, &row.CreatedAt, &row.UpdatedAt)
	return &row, err
}

// AddModel allocates the next version number for name and inserts the row.
// Version numbers come from model_versions, so a number is never handed out
// twice even after its row is deleted.
func (r *modelRepository) AddModel(ctx context.Context, name, path string, active bool, description, appInfo string) (int, error) {
	if name == "" {
		return 0, domain.ErrEmptyName
	}
	if path == "" {
		return 0, domain.ErrEmptyPath
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var version int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO model_versions (name, last_version) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET last_version = last_version + 1
		RETURNING last_version`,
		name,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate model version: %w", err)
	}

	now := time.Now().Unix()
	if active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE models SET active = 0, updated_at = ? WHERE name = ? AND active = 1`,
			now, name,
		); err != nil {
			return 0, fmt.Errorf("failed to deactivate model versions: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO models (`+modelColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, version, path, description, appInfo, active, now, now,
	); err != nil {
		return 0, fmt.Errorf("failed to insert model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit model: %w", err)
	}
	return version, nil
}

// GetModel retrieves one version of a model.
func (r *modelRepository) GetModel(ctx context.Context, name string, version int) (*domain.Model, error) {
	row, err := scanModel(r.db.QueryRowContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE name = ? AND version = ?`,
		name, version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ModelNotFoundError{Name: name, Version: version}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return row.toDomain(), nil
}

// GetActiveModel retrieves the active version of a model.
func (r *modelRepository) GetActiveModel(ctx context.Context, name string) (*domain.Model, error) {
	row, err := scanModel(r.db.QueryRowContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE name = ? AND active = 1`,
		name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.NoActiveModelError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active model: %w", err)
	}
	return row.toDomain(), nil
}

// ListModels returns every version of a model, oldest first.
func (r *modelRepository) ListModels(ctx context.Context, name string) ([]*domain.Model, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+modelColumns+` FROM models WHERE name = ? ORDER BY version ASC`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var models []*domain.Model
	for rows.Next() {
		row, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		models = append(models, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate models: %w", err)
	}
	if len(models) == 0 {
		return nil, &domain.ModelNotFoundError{Name: name}
	}
	return models, nil
}

// ActivateModel makes version the single active version of name.
func (r *modelRepository) ActivateModel(ctx context.Context, name string, version int) error {
	if version <= 0 {
		return domain.ErrInvalidVersion
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	result, err := tx.ExecContext(ctx,
		`UPDATE models SET active = 1, updated_at = ? WHERE name = ? AND version = ?`,
		now, name, version,
	)
	if err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &domain.ModelNotFoundError{Name: name, Version: version}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE models SET active = 0, updated_at = ? WHERE name = ? AND version != ? AND active = 1`,
		now, name, version,
	); err != nil {
		return fmt.Errorf("failed to deactivate model versions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}
	return nil
}

// UpdateModelDescription replaces the description of one version.
func (r *modelRepository) UpdateModelDescription(ctx context.Context, name string, version int, description string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE models SET description = ?, updated_at = ? WHERE name = ? AND version = ?`,
		description, time.Now().Unix(), name, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update model description: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &domain.ModelNotFoundError{Name: name, Version: version}
	}
	return nil
}

// DeleteModel removes one inactive version.
func (r *modelRepository) DeleteModel(ctx context.Context, name string, version int) error {
	if version <= 0 {
		return domain.ErrInvalidVersion
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var active bool
	err = tx.QueryRowContext(ctx,
		`SELECT active FROM models WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&active)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ModelNotFoundError{Name: name, Version: version}
	}
	if err != nil {
		return fmt.Errorf("failed to look up model: %w", err)
	}
	if active {
		return fmt.Errorf("cannot delete %s version %d: %w", name, version, domain.ErrModelActive)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM models WHERE name = ? AND version = ?`, name, version,
	); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// DeleteAllModelVersions removes every version of name, active or not.
func (r *modelRepository) DeleteAllModelVersions(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete model versions: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return &domain.ModelNotFoundError{Name: name}
	}
	return nil
}

// DeleteModelsByApp removes every model whose app info names appID.
func (r *modelRepository) DeleteModelsByApp(ctx context.Context, appID string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	names, err := distinctNames(ctx, tx, `SELECT DISTINCT name FROM models WHERE `+appIDMatch+` ORDER BY name`, appID)
	if err != nil {
		return nil, fmt.Errorf("failed to find models for app: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE `+appIDMatch, appID); err != nil {
		return nil, fmt.Errorf("failed to delete models for app: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return names, nil
}

func distinctNames(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
