package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/database"
	"github.com/allisson/appointments/internal/deadletter/domain"
	"github.com/allisson/appointments/internal/delivery"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// deadLetterUseCase implements UseCase.
type deadLetterUseCase struct {
	txManager database.TxManager
	repo      DeadLetterRepository
	senders   SenderResolver
}

// NewDeadLetterUseCase creates a new dead-letter use case.
func NewDeadLetterUseCase(
	txManager database.TxManager,
	repo DeadLetterRepository,
	senders SenderResolver,
) UseCase {
	return &deadLetterUseCase{
		txManager: txManager,
		repo:      repo,
		senders:   senders,
	}
}

// Record stores a failed message with its last error. Records are keyed by
// channel and message key, so a message settled twice after a broker
// redelivery still leaves a single dead letter. Messages without a key fall
// back to the broker message id.
func (d *deadLetterUseCase) Record(
	ctx context.Context,
	channel string,
	msg delivery.Message,
	attempts int,
	cause error,
) error {
	lastError := ""
	if cause != nil {
		lastError = cause.Error()
	}

	deadLetter := domain.NewDeadLetter(channel, msg.Key(), msg.Body, copyMetadata(msg.Metadata), attempts, lastError)
	if deadLetter.MessageKey == "" {
		deadLetter.MessageKey = msg.ID
	}
	if deadLetter.MessageKey == "" {
		deadLetter.MessageKey = deadLetter.ID.String()
	}
	if err := d.repo.Upsert(ctx, deadLetter); err != nil {
		return apperrors.Classify(apperrors.ErrStore, err)
	}
	return nil
}

// List returns dead letters, newest first. An empty channel lists every channel.
func (d *deadLetterUseCase) List(
	ctx context.Context,
	channel string,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	return d.repo.List(ctx, channel, offset, limit)
}

// Requeue republishes a pending dead letter on its original channel and marks
// it requeued. The row stays locked until the publish completes so two
// operators cannot requeue it concurrently.
func (d *deadLetterUseCase) Requeue(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	var requeued *domain.DeadLetter

	err := d.txManager.WithTx(ctx, func(ctx context.Context) error {
		deadLetter, err := d.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if deadLetter.Status == domain.StatusRequeued {
			return domain.ErrAlreadyRequeued
		}

		sender, err := d.senders.Sender(deadLetter.Channel)
		if err != nil {
			return apperrors.Classify(apperrors.ErrDispatch, err)
		}
		if err := sender.Send(ctx, deadLetter.Payload, copyMetadata(deadLetter.Metadata)); err != nil {
			return apperrors.Classify(
				apperrors.ErrDispatch,
				fmt.Errorf("failed to republish to %s: %w", deadLetter.Channel, err),
			)
		}

		deadLetter.MarkRequeued(time.Now())
		if err := d.repo.Update(ctx, deadLetter); err != nil {
			return err
		}

		requeued = deadLetter
		return nil
	})
	if err != nil {
		return nil, err
	}
	return requeued, nil
}

func copyMetadata(metadata map[string]string) map[string]string {
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
