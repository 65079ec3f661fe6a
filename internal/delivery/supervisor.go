package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/allisson/appointments/internal/metrics"
)

const metricsDomain = "delivery"

// Supervisor drives one subscription: it receives messages, runs the handler
// under the retry policy and settles every message with an ack, a dead letter
// or a nack.
type Supervisor struct {
	channel     string
	receiver    Receiver
	handler     Handler
	policy      Policy
	deadLetters DeadLetterSink
	concurrency int
	metrics     metrics.BusinessMetrics
	logger      *slog.Logger
}

// Config holds the dependencies of a Supervisor.
type Config struct {
	// Channel names the subscription in logs, metrics and dead letters.
	Channel     string
	Receiver    Receiver
	Handler     Handler
	Policy      Policy
	DeadLetters DeadLetterSink
	// Concurrency bounds in-flight messages. Values below 1 mean 1.
	Concurrency int
	Metrics     metrics.BusinessMetrics
	Logger      *slog.Logger
}

// NewSupervisor validates cfg and creates a Supervisor.
func NewSupervisor(cfg Config) (*Supervisor, error) {
	if cfg.Channel == "" {
		return nil, fmt.Errorf("supervisor channel is required")
	}
	if cfg.Receiver == nil || cfg.Handler == nil || cfg.DeadLetters == nil {
		return nil, fmt.Errorf("supervisor %s: receiver, handler and dead letter sink are required", cfg.Channel)
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("supervisor %s: %w", cfg.Channel, err)
	}

	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNoOpBusinessMetrics()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Supervisor{
		channel:     cfg.Channel,
		receiver:    cfg.Receiver,
		handler:     cfg.Handler,
		policy:      cfg.Policy,
		deadLetters: cfg.DeadLetters,
		concurrency: concurrency,
		metrics:     m,
		logger:      logger.With(slog.String("channel", cfg.Channel)),
	}, nil
}

// Channel returns the supervised channel name.
func (s *Supervisor) Channel() string {
	return s.channel
}

// Run receives and handles messages until ctx is done or the receiver fails.
// It waits for in-flight messages before returning.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started", slog.Int("concurrency", s.concurrency))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			s.logger.Info("supervisor stopped")
			return nil
		}

		d, err := s.receiver.Receive(ctx)
		if err != nil {
			<-sem
			if ctx.Err() != nil {
				s.logger.Info("supervisor stopped")
				return nil
			}
			return fmt.Errorf("receive from %s: %w", s.channel, err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.Handle(ctx, d)
		}()
	}
}

// Handle runs the handler for a single delivery and settles it.
func (s *Supervisor) Handle(ctx context.Context, d Delivery) {
	start := time.Now()
	msg := d.Message()
	logger := s.logger.With(slog.String("message_id", msg.ID), slog.String("message_key", msg.Key()))

	attempts := 0
	err := retry.Do(ctx, s.policy.Backoff(), func(ctx context.Context) error {
		attempts++
		err := s.attempt(ctx, msg)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}

		logger.Warn("delivery attempt failed",
			slog.Int("attempt", attempts),
			slog.Int("max_attempts", s.policy.MaxAttempts),
			slog.Any("error", err),
		)
		s.metrics.RecordOperation(ctx, metricsDomain, s.channel, "retry")
		return retry.RetryableError(err)
	})

	switch {
	case err == nil:
		d.Ack()
		s.record(ctx, "success", attempts, start)

	case ctx.Err() != nil:
		// Stopping mid-retry: hand the message back to the broker.
		logger.Warn("delivery interrupted, message nacked", slog.Int("attempts", attempts))
		d.Nack()
		s.record(context.WithoutCancel(ctx), "nack", attempts, start)

	default:
		status := s.deadLetter(ctx, d, msg, attempts, err, logger)
		s.record(ctx, status, attempts, start)
	}
}

func (s *Supervisor) attempt(ctx context.Context, msg Message) error {
	if s.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.policy.AttemptTimeout)
		defer cancel()
	}
	return s.handler(ctx, msg)
}

func (s *Supervisor) deadLetter(
	ctx context.Context,
	d Delivery,
	msg Message,
	attempts int,
	cause error,
	logger *slog.Logger,
) string {
	var perr *permanentError
	if errors.As(cause, &perr) {
		cause = perr.err
	}

	if err := s.deadLetters.Record(ctx, s.channel, msg, attempts, cause); err != nil {
		logger.Error("failed to record dead letter, message nacked",
			slog.Any("error", err),
			slog.Any("cause", cause),
		)
		d.Nack()
		return "nack"
	}

	logger.Error("message moved to dead letters",
		slog.Int("attempts", attempts),
		slog.Any("error", cause),
	)
	d.Ack()
	return "dead_letter"
}

func (s *Supervisor) record(ctx context.Context, status string, attempts int, start time.Time) {
	s.metrics.RecordOperation(ctx, metricsDomain, s.channel, status)
	s.metrics.RecordDuration(ctx, metricsDomain, s.channel, time.Since(start), status)
	s.metrics.RecordAttempts(ctx, metricsDomain, s.channel, attempts, status)
}
