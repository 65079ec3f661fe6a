package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/allisson/appointments/cmd/app/commands"
	"github.com/allisson/appointments/internal/app"
	"github.com/allisson/appointments/internal/config"
)

func getAppointmentCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "stuck-appointments",
			Usage: "List appointments still pending and optionally dispatch them again",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "minutes",
					Aliases: []string{"m"},
					Usage:   "Pending age in minutes (defaults to STUCK_PENDING_THRESHOLD_MINUTES)",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   100,
					Usage:   "Maximum number of appointments to report",
				},
				&cli.BoolFlag{
					Name:    "redispatch",
					Aliases: []string{"r"},
					Value:   false,
					Usage:   "Publish every reported appointment to its region again",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				intakeUseCase, err := container.IntakeUseCase()
				if err != nil {
					return err
				}

				olderThan := cfg.StuckPendingThreshold
				if minutes := cmd.Int("minutes"); minutes > 0 {
					olderThan = time.Duration(minutes) * time.Minute
				}

				return commands.RunStuckAppointments(
					ctx,
					intakeUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					olderThan,
					int(cmd.Int("limit")),
					cmd.Bool("redispatch"),
					cmd.String("format"),
				)
			},
		},
	}
}
