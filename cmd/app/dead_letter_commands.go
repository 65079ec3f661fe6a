package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/appointments/cmd/app/commands"
	"github.com/allisson/appointments/internal/app"
	"github.com/allisson/appointments/internal/config"
	"github.com/allisson/appointments/internal/httputil"
)

func getDeadLetterCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-dead-letters",
			Usage: "List messages that exhausted their delivery attempts",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "channel",
					Aliases: []string{"c"},
					Usage:   "Only list dead letters of this channel (e.g. dispatch.pe, completion)",
				},
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Number of dead letters to skip",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   httputil.DeadLetterPage.DefaultLimit,
					Usage:   "Maximum number of dead letters to list",
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

				useCase, err := container.DeadLetterUseCase()
				if err != nil {
					return err
				}

				return commands.RunListDeadLetters(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("channel"),
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "requeue-dead-letter",
			Usage: "Publish a dead letter on its original channel again",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "id",
					Aliases:  []string{"i"},
					Required: true,
					Usage:    "Dead letter ID (UUID)",
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

				useCase, err := container.DeadLetterUseCase()
				if err != nil {
					return err
				}

				return commands.RunRequeueDeadLetter(
					ctx,
					useCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.String("format"),
				)
			},
		},
	}
}
