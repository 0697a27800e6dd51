// Package database provides the embedded schema migrations for the SQL
// stores and the golang-migrate tooling that applies them. PostgreSQL and
// SQLite carry parallel migration sets with the same version numbers.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // registers the pgx5 scheme
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Dialect names a migration set
type Dialect string

const (
	// DialectPostgres is the migration set for PostgreSQL
	DialectPostgres Dialect = "postgres"
	// DialectSQLite is the migration set for SQLite
	DialectSQLite Dialect = "sqlite"
)

// ErrDirty is returned when a previous migration failed half way. The
// schema must be repaired by hand and the version forced before migrating again.
var ErrDirty = errors.New("database is in a dirty migration state")

//go:embed migrations
var migrationsFS embed.FS

// migrationsFromSource returns a migration source driver for one dialect.
func migrationsFromSource(dialect Dialect) (source.Driver, error) {
	d, err := iofs.New(migrationsFS, path.Join("migrations", string(dialect)))
	if err != nil {
		return nil, fmt.Errorf("unknown migration dialect %q: %w", dialect, err)
	}
	return d, nil
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
}

// NewFromConnectionString returns a migration instance for the PostgreSQL
// database at connString (a postgres:// or postgresql:// URL). The caller
// must Close it.
func NewFromConnectionString(connString string) (*migrate.Migrate, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return nil, fmt.Errorf("invalid connection string: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("unsupported connection scheme %q", u.Scheme)
	}
	// the pgx/v5 driver is registered as pgx5
	u.Scheme = "pgx5"

	d, err := migrationsFromSource(DialectPostgres)
	if err != nil {
		return nil, err
	}
	m, err := migrate.NewWithSourceInstance("iofs", d, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// NewSQLite returns a migration instance over an open SQLite handle.
// Closing the instance closes db, so callers that keep using db leave it open.
func NewSQLite(db *sql.DB) (*migrate.Migrate, error) {
	d, err := migrationsFromSource(DialectSQLite)
	if err != nil {
		return nil, err
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", d, string(DialectSQLite), driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations. An up to date schema is not an error.
func MigrateUp(m Migrator) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return dirty(err)
	}
	return nil
}

// MigrateDown reverts steps migrations, or all of them when steps <= 0.
// Asking for more steps than are applied reverts what there is.
func MigrateDown(m Migrator, steps int) error {
	var err error
	if steps <= 0 {
		err = m.Down()
	} else {
		err = m.Steps(-steps)
	}

	var short migrate.ErrShortLimit
	if err == nil || errors.Is(err, migrate.ErrNoChange) || errors.As(err, &short) {
		return nil
	}
	return dirty(err)
}

// CurrentVersion returns the applied schema version, 0 when none.
func CurrentVersion(m Migrator) (uint, error) {
	version, isDirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if isDirty {
		return version, fmt.Errorf("%w at version %d", ErrDirty, version)
	}
	return version, nil
}

func dirty(err error) error {
	var dirtyErr migrate.ErrDirty
	if errors.As(err, &dirtyErr) {
		return fmt.Errorf("%w at version %d", ErrDirty, dirtyErr.Version)
	}
	return err
}
