// Package usecase implements the dead-letter holding area: recording messages
// that could not be delivered, listing them and republishing them.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/deadletter/domain"
	"github.com/allisson/appointments/internal/delivery"
	"github.com/allisson/appointments/internal/messaging"
)

// DeadLetterRepository defines dead-letter persistence operations.
type DeadLetterRepository interface {
	Upsert(ctx context.Context, deadLetter *domain.DeadLetter) error
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error)
	List(ctx context.Context, channel string, offset, limit int) ([]*domain.DeadLetter, error)
	Update(ctx context.Context, deadLetter *domain.DeadLetter) error
}

// SenderResolver returns the Sender of a named channel. Implemented by
// *messaging.Channels.
type SenderResolver interface {
	Sender(name string) (messaging.Sender, error)
}

// UseCase defines dead-letter operations.
type UseCase interface {
	delivery.DeadLetterSink
	List(ctx context.Context, channel string, offset, limit int) ([]*domain.DeadLetter, error)
	Requeue(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error)
}
