package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allisson/appointments/internal/appointment/domain"
	appointmentHTTP "github.com/allisson/appointments/internal/appointment/http"
	"github.com/allisson/appointments/internal/appointment/publisher"
	appointmentRepository "github.com/allisson/appointments/internal/appointment/repository"
	appointmentUseCase "github.com/allisson/appointments/internal/appointment/usecase"
	"github.com/allisson/appointments/internal/config"
	"github.com/allisson/appointments/internal/messaging"
)

// LedgerRepository returns the central ledger repository based on the database driver.
func (c *Container) LedgerRepository() (appointmentUseCase.LedgerRepository, error) {
	var err error
	c.ledgerRepositoryInit.Do(func() {
		c.ledgerRepository, err = c.initLedgerRepository()
		if err != nil {
			c.initErrors["ledgerRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledgerRepository"]; exists {
		return nil, storedErr
	}
	return c.ledgerRepository, nil
}

// Channels returns the messaging channels with every topic opened. Subscriptions
// are opened only by Supervisors.
func (c *Container) Channels() (*messaging.Channels, error) {
	var err error
	c.channelsInit.Do(func() {
		c.channels, err = c.initChannels()
		if err != nil {
			c.initErrors["channels"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["channels"]; exists {
		return nil, storedErr
	}
	return c.channels, nil
}

// RegionRegistry returns the supported countries bound to their dispatch channels.
func (c *Container) RegionRegistry() (*appointmentUseCase.RegionRegistry, error) {
	var err error
	c.regionRegistryInit.Do(func() {
		c.regionRegistry, err = c.initRegionRegistry()
		if err != nil {
			c.initErrors["regionRegistry"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["regionRegistry"]; exists {
		return nil, storedErr
	}
	return c.regionRegistry, nil
}

// IntakeUseCase returns the intake router use case.
func (c *Container) IntakeUseCase() (appointmentUseCase.IntakeUseCase, error) {
	var err error
	c.intakeUseCaseInit.Do(func() {
		c.intakeUseCase, err = c.initIntakeUseCase()
		if err != nil {
			c.initErrors["intakeUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["intakeUseCase"]; exists {
		return nil, storedErr
	}
	return c.intakeUseCase, nil
}

// RegionalProcessors returns one processor per configured country, in
// configuration order.
func (c *Container) RegionalProcessors() ([]appointmentUseCase.RegionalProcessor, error) {
	var err error
	c.regionalProcessorsInit.Do(func() {
		c.regionalProcessors, err = c.initRegionalProcessors()
		if err != nil {
			c.initErrors["regionalProcessors"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["regionalProcessors"]; exists {
		return nil, storedErr
	}
	return c.regionalProcessors, nil
}

// CompletionReconciler returns the reconciler that settles the central ledger.
func (c *Container) CompletionReconciler() (appointmentUseCase.CompletionReconciler, error) {
	var err error
	c.completionReconcilerInit.Do(func() {
		c.completionReconciler, err = c.initCompletionReconciler()
		if err != nil {
			c.initErrors["completionReconciler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["completionReconciler"]; exists {
		return nil, storedErr
	}
	return c.completionReconciler, nil
}

// AppointmentHandler returns the HTTP handler for scheduling and lookups.
func (c *Container) AppointmentHandler() (*appointmentHTTP.AppointmentHandler, error) {
	var err error
	c.appointmentHandlerInit.Do(func() {
		c.appointmentHandler, err = c.initAppointmentHandler()
		if err != nil {
			c.initErrors["appointmentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["appointmentHandler"]; exists {
		return nil, storedErr
	}
	return c.appointmentHandler, nil
}

// initLedgerRepository creates the ledger repository based on the database driver.
func (c *Container) initLedgerRepository() (appointmentUseCase.LedgerRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for ledger repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return appointmentRepository.NewPostgreSQLLedgerRepository(db), nil
	case "mysql":
		return appointmentRepository.NewMySQLLedgerRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initChannels opens the completion topic and the dispatch topic of every country.
func (c *Container) initChannels() (*messaging.Channels, error) {
	ctx := context.Background()
	channels := messaging.NewChannels()

	if _, err := channels.Open(ctx, publisher.CompletionChannel, c.config.CompletionTopicURL, ""); err != nil {
		return nil, fmt.Errorf("failed to open completion channel: %w", err)
	}

	for _, region := range c.config.Regions {
		name := publisher.DispatchChannel(domain.CountryCode(region.Code))
		if _, err := channels.Open(ctx, name, region.DispatchTopicURL, ""); err != nil {
			_ = channels.Shutdown(ctx)
			return nil, fmt.Errorf("failed to open dispatch channel for %s: %w", region.Code, err)
		}
	}

	return channels, nil
}

// initRegionRegistry binds every configured country to a dispatch publisher.
func (c *Container) initRegionRegistry() (*appointmentUseCase.RegionRegistry, error) {
	channels, err := c.Channels()
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for region registry: %w", err)
	}

	regions := make([]appointmentUseCase.Region, 0, len(c.config.Regions))
	for _, region := range c.config.Regions {
		code := domain.CountryCode(region.Code)
		sender, err := channels.Sender(publisher.DispatchChannel(code))
		if err != nil {
			return nil, fmt.Errorf("failed to get dispatch sender for %s: %w", code, err)
		}
		regions = append(regions, appointmentUseCase.Region{
			Code:     code,
			Dispatch: publisher.NewDispatchPublisher(code, sender),
		})
	}

	return appointmentUseCase.NewRegionRegistry(regions...)
}

// initIntakeUseCase creates the intake use case with all its dependencies.
func (c *Container) initIntakeUseCase() (appointmentUseCase.IntakeUseCase, error) {
	ledger, err := c.LedgerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger repository for intake use case: %w", err)
	}

	registry, err := c.RegionRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to get region registry for intake use case: %w", err)
	}

	baseUseCase := appointmentUseCase.NewIntakeUseCase(ledger, registry, c.config.OperationTimeout)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for intake use case: %w", err)
		}
		return appointmentUseCase.NewIntakeUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initRegionalProcessors creates a processor per country, bound to its
// regional store and to the completion channel.
func (c *Container) initRegionalProcessors() ([]appointmentUseCase.RegionalProcessor, error) {
	dbs, err := c.RegionalDBs()
	if err != nil {
		return nil, fmt.Errorf("failed to get regional databases for regional processors: %w", err)
	}

	channels, err := c.Channels()
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for regional processors: %w", err)
	}

	sender, err := channels.Sender(publisher.CompletionChannel)
	if err != nil {
		return nil, fmt.Errorf("failed to get completion sender for regional processors: %w", err)
	}
	completions := publisher.NewCompletionPublisher(sender)

	processors := make([]appointmentUseCase.RegionalProcessor, 0, len(c.config.Regions))
	for _, region := range c.config.Regions {
		code := domain.CountryCode(region.Code)
		store, err := newRegionalStore(region, dbs[code])
		if err != nil {
			return nil, err
		}

		processor := appointmentUseCase.NewRegionalProcessor(code, store, completions)
		if c.config.MetricsEnabled {
			businessMetrics, err := c.BusinessMetrics()
			if err != nil {
				return nil, fmt.Errorf("failed to get business metrics for regional processor: %w", err)
			}
			processor = appointmentUseCase.NewRegionalProcessorWithMetrics(processor, businessMetrics)
		}
		processors = append(processors, processor)
	}

	return processors, nil
}

// initCompletionReconciler creates the reconciler over the central ledger.
func (c *Container) initCompletionReconciler() (appointmentUseCase.CompletionReconciler, error) {
	ledger, err := c.LedgerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger repository for completion reconciler: %w", err)
	}

	reconciler := appointmentUseCase.NewCompletionReconciler(ledger)
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for completion reconciler: %w", err)
		}
		return appointmentUseCase.NewCompletionReconcilerWithMetrics(reconciler, businessMetrics), nil
	}

	return reconciler, nil
}

// initAppointmentHandler creates the appointment HTTP handler with all its dependencies.
func (c *Container) initAppointmentHandler() (*appointmentHTTP.AppointmentHandler, error) {
	intakeUseCase, err := c.IntakeUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get intake use case for appointment handler: %w", err)
	}
	return appointmentHTTP.NewAppointmentHandler(intakeUseCase, c.Logger()), nil
}

func newRegionalStore(region config.RegionConfig, db *sql.DB) (appointmentUseCase.RegionalStore, error) {
	if db == nil {
		return nil, fmt.Errorf("no regional database for %s", region.Code)
	}
	switch region.DBDriver {
	case "postgres":
		return appointmentRepository.NewPostgreSQLRegionalRepository(db), nil
	case "mysql":
		return appointmentRepository.NewMySQLRegionalRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver for %s: %s", region.Code, region.DBDriver)
	}
}
