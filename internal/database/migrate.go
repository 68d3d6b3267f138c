package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/trogers1052/stock-calculator/db/migrations"
)

// Migrate applies all pending schema migrations for the active dialect
func (db *DB) Migrate() error {
	source, err := iofs.New(migrations.FS, string(db.dialect))
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	var driver migratedb.Driver
	switch db.dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(db.conn, &postgres.Config{})
	default:
		driver, err = sqlite.WithInstance(db.conn, &sqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(db.dialect), driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// SchemaVersion reports the applied migration version
func (db *DB) SchemaVersion(ctx context.Context) (uint, bool, error) {
	var (
		version uint
		dirty   bool
	)
	query := `SELECT version, dirty FROM schema_migrations LIMIT 1`
	if err := db.queryRow(ctx, query).Scan(&version, &dirty); err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}
