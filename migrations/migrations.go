// Package migrations embeds the SQL schema of the central ledger and of the
// regional stores, one directory per database driver.
package migrations

import (
	"embed"

	"github.com/allisson/appointments/internal/database"
)

// FS holds every migration file. Paths follow <scope>/<driver>, for example
// "central/postgresql" or "regional/mysql".
//
//go:embed central regional
var FS embed.FS

const (
	centralTable  = "schema_migrations"
	regionalTable = "regional_schema_migrations"
)

// Central returns the central ledger migrations for driver ("postgres" or "mysql").
func Central(driver string) database.MigrationSource {
	return database.MigrationSource{FS: FS, Dir: dir("central", driver), Table: centralTable}
}

// Regional returns the regional store migrations for driver.
func Regional(driver string) database.MigrationSource {
	return database.MigrationSource{FS: FS, Dir: dir("regional", driver), Table: regionalTable}
}

func dir(scope, driver string) string {
	if driver == "postgres" {
		return scope + "/postgresql"
	}
	return scope + "/" + driver
}
