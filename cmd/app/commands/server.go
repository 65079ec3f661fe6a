package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/allisson/appointments/internal/app"
	"github.com/allisson/appointments/internal/config"
)

// RunServer starts the intake HTTP server with graceful shutdown support.
// When WORKER_EMBEDDED is set the regional processors and the completion
// reconciler run in the same process. Blocks until SIGINT/SIGTERM or a fatal
// error, then stops within DBConnMaxLifetime.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server",
		slog.String("version", version),
		slog.Bool("worker_embedded", cfg.WorkerEmbedded),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get HTTP server from container (this initializes all dependencies)
	httpServer, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	servers := []namedServer{{name: "api server", server: httpServer}}

	metricsServer, err := container.MetricsServer()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics server: %w", err)
	}
	if metricsServer != nil {
		servers = append(servers, namedServer{name: "metrics server", server: metricsServer})
	}

	var runners []runner
	if cfg.WorkerEmbedded {
		supervisors, err := container.Supervisors()
		if err != nil {
			return fmt.Errorf("failed to initialize workers: %w", err)
		}
		for _, supervisor := range supervisors {
			runners = append(runners, supervisor)
		}
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return serve(ctx, logger, cfg.DBConnMaxLifetime, servers, runners)
}
