package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// migrate applies every pending migration for the connected dialect.
func (db *DB) migrate() error {
	src, err := iofs.New(migrationFiles, "migrations/"+db.DriverName())
	if err != nil {
		return fmt.Errorf("load %s migrations: %w", db.DriverName(), err)
	}

	var drv database.Driver
	switch db.DriverName() {
	case DriverSQLite:
		drv, err = migratesqlite.WithInstance(db.DB.DB, &migratesqlite.Config{})
	case DriverPostgres:
		drv, err = postgres.WithInstance(db.DB.DB, &postgres.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), drv)
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}

	// m.Close would also close the shared *sql.DB, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.log.Debug().Msg("schema is up to date")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	db.log.Info().Uint("version", version).Msg("migrations applied")

	return nil
}
