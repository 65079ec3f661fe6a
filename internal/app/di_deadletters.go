package app

import (
	"fmt"

	deadLetterHTTP "github.com/allisson/appointments/internal/deadletter/http"
	deadLetterRepository "github.com/allisson/appointments/internal/deadletter/repository"
	deadLetterUseCase "github.com/allisson/appointments/internal/deadletter/usecase"
)

// DeadLetterRepository returns the dead-letter repository based on the database driver.
func (c *Container) DeadLetterRepository() (deadLetterUseCase.DeadLetterRepository, error) {
	var err error
	c.deadLetterRepositoryInit.Do(func() {
		c.deadLetterRepository, err = c.initDeadLetterRepository()
		if err != nil {
			c.initErrors["deadLetterRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deadLetterRepository"]; exists {
		return nil, storedErr
	}
	return c.deadLetterRepository, nil
}

// DeadLetterUseCase returns the dead-letter use case. It is also the sink the
// supervisors record exhausted messages into.
func (c *Container) DeadLetterUseCase() (deadLetterUseCase.UseCase, error) {
	var err error
	c.deadLetterUseCaseInit.Do(func() {
		c.deadLetterUseCase, err = c.initDeadLetterUseCase()
		if err != nil {
			c.initErrors["deadLetterUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deadLetterUseCase"]; exists {
		return nil, storedErr
	}
	return c.deadLetterUseCase, nil
}

// DeadLetterHandler returns the HTTP handler for the operator endpoints.
func (c *Container) DeadLetterHandler() (*deadLetterHTTP.DeadLetterHandler, error) {
	var err error
	c.deadLetterHandlerInit.Do(func() {
		c.deadLetterHandler, err = c.initDeadLetterHandler()
		if err != nil {
			c.initErrors["deadLetterHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["deadLetterHandler"]; exists {
		return nil, storedErr
	}
	return c.deadLetterHandler, nil
}

func (c *Container) initDeadLetterRepository() (deadLetterUseCase.DeadLetterRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for dead letter repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return deadLetterRepository.NewPostgreSQLDeadLetterRepository(db), nil
	case "mysql":
		return deadLetterRepository.NewMySQLDeadLetterRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initDeadLetterUseCase() (deadLetterUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for dead letter use case: %w", err)
	}

	repository, err := c.DeadLetterRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter repository for dead letter use case: %w", err)
	}

	channels, err := c.Channels()
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for dead letter use case: %w", err)
	}

	return deadLetterUseCase.NewDeadLetterUseCase(txManager, repository, channels), nil
}

func (c *Container) initDeadLetterHandler() (*deadLetterHTTP.DeadLetterHandler, error) {
	useCase, err := c.DeadLetterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter use case for dead letter handler: %w", err)
	}
	return deadLetterHTTP.NewDeadLetterHandler(useCase, c.Logger()), nil
}
