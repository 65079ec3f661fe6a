package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/allisson/appointments/internal/config"
	"github.com/allisson/appointments/internal/database"
	"github.com/allisson/appointments/migrations"
)

// MigrationTarget is one database to bring up to date.
type MigrationTarget struct {
	// Name identifies the target in logs and errors, e.g. "central" or "region PE".
	Name             string
	Driver           string
	ConnectionString string
	Source           database.MigrationSource
}

// MigrationTargets lists the databases selected by scope: "central", "regional"
// or "all". Regions appear in SUPPORTED_COUNTRIES order.
func MigrationTargets(cfg *config.Config, scope string) ([]MigrationTarget, error) {
	var targets []MigrationTarget

	switch scope {
	case "all", "central", "regional":
	default:
		return nil, fmt.Errorf("invalid scope: %s (valid options: all, central, regional)", scope)
	}

	if scope != "regional" {
		targets = append(targets, MigrationTarget{
			Name:             "central",
			Driver:           cfg.DBDriver,
			ConnectionString: cfg.DBConnectionString,
			Source:           migrations.Central(cfg.DBDriver),
		})
	}

	if scope != "central" {
		for _, region := range cfg.Regions {
			targets = append(targets, MigrationTarget{
				Name:             "region " + region.Code,
				Driver:           region.DBDriver,
				ConnectionString: region.DBConnectionString,
				Source:           migrations.Regional(region.DBDriver),
			})
		}
	}

	return targets, nil
}

// RunMigrations applies pending migrations to every target in order and stops
// at the first failure. Targets already up to date are not an error.
func RunMigrations(ctx context.Context, logger *slog.Logger, targets []MigrationTarget) error {
	for _, target := range targets {
		logger.Info("running database migrations",
			slog.String("target", target.Name),
			slog.String("driver", target.Driver),
		)

		version, err := migrateTarget(ctx, target)
		if err != nil {
			return fmt.Errorf("%s: %w", target.Name, err)
		}

		logger.Info("migrations completed successfully",
			slog.String("target", target.Name),
			slog.Uint64("version", uint64(version)),
		)
	}
	return nil
}

func migrateTarget(ctx context.Context, target MigrationTarget) (uint, error) {
	db, err := database.Connect(ctx, database.Config{
		Driver:             target.Driver,
		ConnectionString:   target.ConnectionString,
		MaxOpenConnections: 1,
		MaxIdleConnections: 1,
		ConnectAttempts:    5,
	})
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	return database.Migrate(db, target.Driver, target.Source)
}
