// Package usecase implements the appointment fulfillment saga: intake into the
// central ledger, regional processing and completion reconciliation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/appointment/domain"
)

// LedgerRepository defines the central ledger persistence operations.
type LedgerRepository interface {
	Insert(ctx context.Context, appointment *domain.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	// UpdateStatus applies a forward status transition. It returns false without
	// error when the row already holds the target status, and ErrNotFound when
	// the row does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status, updatedAt time.Time) (bool, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*domain.Appointment, error)
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*domain.Appointment, error)
}

// RegionalStore persists the country copy of an appointment. Upsert must be
// idempotent on the appointment id and never move a status backwards.
type RegionalStore interface {
	Upsert(ctx context.Context, appointment *domain.Appointment) error
}

// DispatchPublisher publishes a pending appointment on its country's channel.
type DispatchPublisher interface {
	Publish(ctx context.Context, appointment *domain.Appointment) error
}

// CompletionPublisher publishes completion signals.
type CompletionPublisher interface {
	Publish(ctx context.Context, signal domain.CompletionSignal) error
}

// IntakeUseCase accepts and looks up appointments.
type IntakeUseCase interface {
	Schedule(ctx context.Context, input domain.ScheduleInput) (*domain.Appointment, error)
	Lookup(ctx context.Context, subjectID string) ([]*domain.Appointment, error)
	// ListStuck returns pending appointments created more than olderThan ago.
	ListStuck(ctx context.Context, olderThan time.Duration, limit int) ([]*domain.Appointment, error)
	// Redispatch publishes a pending appointment to its region again.
	Redispatch(ctx context.Context, appointment *domain.Appointment) error
}

// RegionalProcessor persists dispatched appointments for a single country.
type RegionalProcessor interface {
	Country() domain.CountryCode
	ProcessPending(ctx context.Context, appointment *domain.Appointment) error
}

// CompletionReconciler applies completion signals to the central ledger.
type CompletionReconciler interface {
	Reconcile(ctx context.Context, signal domain.CompletionSignal) error
}
