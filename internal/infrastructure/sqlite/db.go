// Package sqlite implements the registry repositories on an embedded SQLite
// database. The schema is managed with golang-migrate from migrations embedded
// in the binary.
package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/mlagent/internal/log"
	"github.com/zjrosen/mlagent/internal/registry/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// pragmas are applied by the driver to every pooled connection.
const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)&_txlock=immediate"

// DB owns the registry database connection pool.
type DB struct {
	conn *sql.DB
	path string
}

// NewDB opens (creating if needed) the registry database at path and migrates
// it to the latest schema. An existing database file is copied to path+".bak"
// before migrations run.
func NewDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	if err := backup(path); err != nil {
		return nil, fmt.Errorf("failed to back up database: %w", err)
	}

	conn, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		log.ErrorErr(log.CatDB, "Failed to open database", err, "path", path)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		log.ErrorErr(log.CatDB, "Failed to ping database", err, "path", path)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrateUp(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Info(log.CatDB, "Opened registry database", "path", path)
	return &DB{conn: conn, path: path}, nil
}

func dsn(path string) string {
	u := url.URL{Path: filepath.ToSlash(path)}
	return "file:" + u.EscapedPath() + "?" + pragmas
}

func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	// m.Close would close conn as well; only the source is released here.
	defer func() { _ = src.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func backup(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	src, err := os.Open(path) //nolint:gosec // G304: path comes from daemon configuration
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600) //nolint:gosec // G304: derived from configured path
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Connection exposes the underlying pool for diagnostics and tests.
func (d *DB) Connection() *sql.DB {
	return d.conn
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Models returns the model repository.
func (d *DB) Models() domain.ModelRepository {
	return newModelRepository(d.conn)
}

// Pipelines returns the pipeline repository.
func (d *DB) Pipelines() domain.PipelineRepository {
	return newPipelineRepository(d.conn)
}

// Resources returns the resource repository.
func (d *DB) Resources() domain.ResourceRepository {
	return newResourceRepository(d.conn)
}

// Registry returns the combined write surface used by the synchronizer.
func (d *DB) Registry() domain.Registry {
	return &registryStore{
		modelRepository:    newModelRepository(d.conn),
		pipelineRepository: newPipelineRepository(d.conn),
		resourceRepository: newResourceRepository(d.conn),
	}
}

type registryStore struct {
	*modelRepository
	*pipelineRepository
	*resourceRepository
}

var _ domain.Registry = (*registryStore)(nil)
