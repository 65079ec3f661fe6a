package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/appointments/cmd/app/commands"
	"github.com/allisson/appointments/internal/app"
	"github.com/allisson/appointments/internal/config"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the intake HTTP server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "worker",
			Usage: "Run the regional processors and the completion reconciler",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunWorker(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Run database migrations on the central ledger and the regional stores",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "scope",
					Aliases: []string{"s"},
					Value:   "all",
					Usage:   "Databases to migrate: 'all', 'central' or 'regional'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				targets, err := commands.MigrationTargets(cfg, cmd.String("scope"))
				if err != nil {
					return err
				}

				return commands.RunMigrations(ctx, container.Logger(), targets)
			},
		},
	}
}
