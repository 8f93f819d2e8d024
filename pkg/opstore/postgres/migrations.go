package postgres

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationFiles holds this store's schema (the operations log and
// snapshot tables Store.Append/LatestSnapshot/WriteSnapshot expect),
// embedded rather than read from a deploy-time path since this package
// ships as a library with no install directory of its own to find them
// in.
//
//go:embed migrations/*.sql
var migrationFiles embed.FS

// EnsureSchema applies this store's schema via golang-migrate, the way the
// teacher's pkg/database/migration.Manager wraps the same library around
// sqlx for its own repositories. Safe to call on every process start: a
// database already at the latest version is a no-op.
func EnsureSchema(db *sql.DB) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("opstore/postgres: load embedded migrations: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("opstore/postgres: build migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("opstore/postgres: build migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("opstore/postgres: apply migrations: %w", err)
	}
	return nil
}
