package app

import (
	"context"
	"fmt"

	"github.com/allisson/appointments/internal/appointment/consumer"
	"github.com/allisson/appointments/internal/appointment/publisher"
	"github.com/allisson/appointments/internal/delivery"
	"github.com/allisson/appointments/internal/messaging"
)

// DeliveryPolicy builds the retry policy shared by every supervisor.
func (c *Container) DeliveryPolicy() (delivery.Policy, error) {
	policy := delivery.Policy{
		MaxAttempts:     c.config.DeliveryMaxAttempts,
		Strategy:        delivery.Strategy(c.config.DeliveryBackoffStrategy),
		InitialInterval: c.config.DeliveryInitialInterval,
		MaxInterval:     c.config.DeliveryMaxInterval,
		AttemptTimeout:  c.config.DeliveryAttemptTimeout,
		AckDeadline:     c.config.DeliveryAckDeadline,
	}
	if err := policy.Validate(); err != nil {
		return delivery.Policy{}, fmt.Errorf("invalid delivery policy: %w", err)
	}
	return policy, nil
}

// Supervisors returns one supervisor per dispatch channel plus one for the
// completion channel. Building them opens the subscriptions, with the policy's
// ack deadline applied to in-memory ones.
func (c *Container) Supervisors() ([]*delivery.Supervisor, error) {
	var err error
	c.supervisorsInit.Do(func() {
		c.supervisors, err = c.initSupervisors()
		if err != nil {
			c.initErrors["supervisors"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["supervisors"]; exists {
		return nil, storedErr
	}
	return c.supervisors, nil
}

func (c *Container) initSupervisors() ([]*delivery.Supervisor, error) {
	ctx := context.Background()

	policy, err := c.DeliveryPolicy()
	if err != nil {
		return nil, err
	}

	channels, err := c.Channels()
	if err != nil {
		return nil, fmt.Errorf("failed to get channels for supervisors: %w", err)
	}

	deadLetters, err := c.DeadLetterUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter use case for supervisors: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for supervisors: %w", err)
	}

	processors, err := c.RegionalProcessors()
	if err != nil {
		return nil, fmt.Errorf("failed to get regional processors for supervisors: %w", err)
	}

	reconciler, err := c.CompletionReconciler()
	if err != nil {
		return nil, fmt.Errorf("failed to get completion reconciler for supervisors: %w", err)
	}

	newSupervisor := func(name, subscriptionURL string, handler delivery.Handler) (*delivery.Supervisor, error) {
		subscriptionURL, err := messaging.SubscriptionURL(subscriptionURL, policy.AckDeadline)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", name, err)
		}
		ch, err := channels.Subscribe(ctx, name, subscriptionURL)
		if err != nil {
			return nil, fmt.Errorf("failed to subscribe to %s: %w", name, err)
		}
		return delivery.NewSupervisor(delivery.Config{
			Channel:     name,
			Receiver:    messaging.NewSubscriptionReceiver(ch.Subscription),
			Handler:     handler,
			Policy:      policy,
			DeadLetters: deadLetters,
			Concurrency: c.config.WorkerConcurrency,
			Metrics:     businessMetrics,
			Logger:      c.Logger(),
		})
	}

	supervisors := make([]*delivery.Supervisor, 0, len(processors)+1)
	for i, processor := range processors {
		region := c.config.Regions[i]
		supervisor, err := newSupervisor(
			publisher.DispatchChannel(processor.Country()),
			region.DispatchSubscriptionURL,
			consumer.NewDispatchHandler(processor),
		)
		if err != nil {
			return nil, err
		}
		supervisors = append(supervisors, supervisor)
	}

	supervisor, err := newSupervisor(
		publisher.CompletionChannel,
		c.config.CompletionSubscriptionURL,
		consumer.NewCompletionHandler(reconciler),
	)
	if err != nil {
		return nil, err
	}
	supervisors = append(supervisors, supervisor)

	return supervisors, nil
}
