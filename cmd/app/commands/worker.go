package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/allisson/appointments/internal/app"
	"github.com/allisson/appointments/internal/config"
)

// RunWorker consumes every dispatch channel and the completion channel until
// SIGINT/SIGTERM. The metrics server, when enabled, also answers /health.
func RunWorker(ctx context.Context, version string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting worker",
		slog.String("version", version),
		slog.Any("countries", cfg.SupportedCountries()),
		slog.Int("concurrency", cfg.WorkerConcurrency),
	)

	defer closeContainer(container, logger)

	supervisors, err := container.Supervisors()
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	runners := make([]runner, 0, len(supervisors))
	for _, supervisor := range supervisors {
		runners = append(runners, supervisor)
	}

	var servers []namedServer
	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		servers = append(servers, namedServer{name: "metrics server", server: metricsServer})
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, logger, cfg.DBConnMaxLifetime, servers, runners)
}
