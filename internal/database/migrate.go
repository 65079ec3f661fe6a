package database

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migrateDatabase "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// MigrationSource describes a set of migrations for one database.
type MigrationSource struct {
	// FS holds the migration files, usually an embed.FS.
	FS fs.FS
	// Dir is the directory inside FS, for example "central/postgresql".
	Dir string
	// Table is the schema version table.
	Table string
}

// Migrate applies every pending migration of source to db and returns the
// resulting schema version. An up to date schema is not an error. The caller
// keeps ownership of db.
func Migrate(db *sql.DB, driver string, source MigrationSource) (uint, error) {
	instance, err := migrationDriver(db, driver, source.Table)
	if err != nil {
		return 0, err
	}

	src, err := iofs.New(source.FS, source.Dir)
	if err != nil {
		return 0, fmt.Errorf("failed to open migrations %s: %w", source.Dir, err)
	}

	// The migrate instance is not closed: closing it would close db, which
	// belongs to the caller.
	m, err := migrate.NewWithInstance("iofs", src, driver, instance)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations from %s: %w", source.Dir, err)
	}

	version, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	return version, nil
}

func migrationDriver(db *sql.DB, driver, table string) (migrateDatabase.Driver, error) {
	switch driver {
	case "postgres":
		instance, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: table})
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres migration driver: %w", err)
		}
		return instance, nil
	case "mysql":
		instance, err := mysql.WithInstance(db, &mysql.Config{MigrationsTable: table})
		if err != nil {
			return nil, fmt.Errorf("failed to create mysql migration driver: %w", err)
		}
		return instance, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
