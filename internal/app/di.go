// Package app provides the dependency injection container that assembles the
// intake router, the regional workers and the dead-letter tooling.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/allisson/appointments/internal/appointment/domain"
	appointmentHTTP "github.com/allisson/appointments/internal/appointment/http"
	appointmentUseCase "github.com/allisson/appointments/internal/appointment/usecase"
	"github.com/allisson/appointments/internal/config"
	"github.com/allisson/appointments/internal/database"
	deadLetterHTTP "github.com/allisson/appointments/internal/deadletter/http"
	deadLetterUseCase "github.com/allisson/appointments/internal/deadletter/usecase"
	"github.com/allisson/appointments/internal/delivery"
	"github.com/allisson/appointments/internal/http"
	"github.com/allisson/appointments/internal/messaging"
	"github.com/allisson/appointments/internal/metrics"
)

// Container holds all application dependencies and provides methods to access them.
// Components are created on first access.
type Container struct {
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	regionalDBs     map[domain.CountryCode]*sql.DB
	txManager       database.TxManager
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	channels        *messaging.Channels

	// Appointments
	ledgerRepository     appointmentUseCase.LedgerRepository
	regionRegistry       *appointmentUseCase.RegionRegistry
	intakeUseCase        appointmentUseCase.IntakeUseCase
	regionalProcessors   []appointmentUseCase.RegionalProcessor
	completionReconciler appointmentUseCase.CompletionReconciler
	appointmentHandler   *appointmentHTTP.AppointmentHandler

	// Dead letters
	deadLetterRepository deadLetterUseCase.DeadLetterRepository
	deadLetterUseCase    deadLetterUseCase.UseCase
	deadLetterHandler    *deadLetterHTTP.DeadLetterHandler

	// Servers and workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer
	supervisors   []*delivery.Supervisor

	mu                       sync.Mutex
	loggerInit               sync.Once
	dbInit                   sync.Once
	regionalDBsInit          sync.Once
	txManagerInit            sync.Once
	metricsProviderInit      sync.Once
	businessMetricsInit      sync.Once
	channelsInit             sync.Once
	ledgerRepositoryInit     sync.Once
	regionRegistryInit       sync.Once
	intakeUseCaseInit        sync.Once
	regionalProcessorsInit   sync.Once
	completionReconcilerInit sync.Once
	appointmentHandlerInit   sync.Once
	deadLetterRepositoryInit sync.Once
	deadLetterUseCaseInit    sync.Once
	deadLetterHandlerInit    sync.Once
	httpServerInit           sync.Once
	metricsServerInit        sync.Once
	supervisorsInit          sync.Once
	initErrors               map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the structured logger configured from LOG_LEVEL.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the central ledger connection.
func (c *Container) DB() (*sql.DB, error) {
	var err error
	c.dbInit.Do(func() {
		c.db, err = c.initDB()
		if err != nil {
			c.initErrors["db"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RegionalDBs returns one connection per configured country.
func (c *Container) RegionalDBs() (map[domain.CountryCode]*sql.DB, error) {
	var err error
	c.regionalDBsInit.Do(func() {
		c.regionalDBs, err = c.initRegionalDBs()
		if err != nil {
			c.initErrors["regionalDBs"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["regionalDBs"]; exists {
		return nil, storedErr
	}
	return c.regionalDBs, nil
}

// TxManager returns the transaction manager of the central ledger.
func (c *Container) TxManager() (database.TxManager, error) {
	var err error
	c.txManagerInit.Do(func() {
		c.txManager, err = c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MetricsProvider returns the Prometheus-backed meter provider, or nil when
// metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the saga metrics recorder. It is a no-op when
// metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// HTTPServer returns the intake HTTP server with its router configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the server exposing /metrics, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		c.metricsServer, err = c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown releases every initialized resource: servers first, then the
// messaging channels, the metrics provider and finally the databases.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.channels != nil {
		if err := c.channels.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("channels shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	for code, db := range c.regionalDBs {
		if err := db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("regional database %s close: %w", code, err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	return errors.Join(shutdownErrors...)
}

// initLogger creates a JSON logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) databaseConfig(driver, connectionString string) database.Config {
	return database.Config{
		Driver:             driver,
		ConnectionString:   connectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		ConnectAttempts:    5,
	}
}

// initDB connects to the central ledger.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(
		context.Background(),
		c.databaseConfig(c.config.DBDriver, c.config.DBConnectionString),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initRegionalDBs connects to every regional store. Already opened
// connections are closed when a later one fails.
func (c *Container) initRegionalDBs() (map[domain.CountryCode]*sql.DB, error) {
	dbs := make(map[domain.CountryCode]*sql.DB, len(c.config.Regions))
	for _, region := range c.config.Regions {
		db, err := database.Connect(
			context.Background(),
			c.databaseConfig(region.DBDriver, region.DBConnectionString),
		)
		if err != nil {
			for _, opened := range dbs {
				_ = opened.Close()
			}
			return nil, fmt.Errorf("failed to connect to %s regional database: %w", region.Code, err)
		}
		dbs[domain.CountryCode(region.Code)] = db
	}
	return dbs, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	if provider == nil {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initHTTPServer creates the HTTP server and registers its routes.
func (c *Container) initHTTPServer() (*http.Server, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	appointmentHandler, err := c.AppointmentHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment handler for http server: %w", err)
	}

	var deadLetterHandler *deadLetterHTTP.DeadLetterHandler
	if c.config.DeadLetterAPIEnabled {
		deadLetterHandler, err = c.DeadLetterHandler()
		if err != nil {
			return nil, fmt.Errorf("failed to get dead letter handler for http server: %w", err)
		}
	}

	metricsProvider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, c.Logger())
	server.SetupRouter(c.config, appointmentHandler, deadLetterHandler, metricsProvider)
	return server, nil
}

func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}
