// Package mocks provides mock implementations of the appointment use case ports for testing.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/appointments/internal/appointment/domain"
)

// MockLedgerRepository is a mock implementation of LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

// Insert mocks the Insert method.
func (m *MockLedgerRepository) Insert(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// Get mocks the Get method.
func (m *MockLedgerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

// UpdateStatus mocks the UpdateStatus method.
func (m *MockLedgerRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) (bool, error) {
	args := m.Called(ctx, id, status, updatedAt)
	return args.Bool(0), args.Error(1)
}

// ListBySubject mocks the ListBySubject method.
func (m *MockLedgerRepository) ListBySubject(ctx context.Context, subjectID string) ([]*domain.Appointment, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

// ListPendingBefore mocks the ListPendingBefore method.
func (m *MockLedgerRepository) ListPendingBefore(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*domain.Appointment, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

// MockRegionalStore is a mock implementation of RegionalStore.
type MockRegionalStore struct {
	mock.Mock
}

// Upsert mocks the Upsert method.
func (m *MockRegionalStore) Upsert(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// MockDispatchPublisher is a mock implementation of DispatchPublisher.
type MockDispatchPublisher struct {
	mock.Mock
}

// Publish mocks the Publish method.
func (m *MockDispatchPublisher) Publish(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// MockCompletionPublisher is a mock implementation of CompletionPublisher.
type MockCompletionPublisher struct {
	mock.Mock
}

// Publish mocks the Publish method.
func (m *MockCompletionPublisher) Publish(ctx context.Context, signal domain.CompletionSignal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

// MockIntakeUseCase is a mock implementation of IntakeUseCase.
type MockIntakeUseCase struct {
	mock.Mock
}

// Schedule mocks the Schedule method.
func (m *MockIntakeUseCase) Schedule(ctx context.Context, input domain.ScheduleInput) (*domain.Appointment, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

// Lookup mocks the Lookup method.
func (m *MockIntakeUseCase) Lookup(ctx context.Context, subjectID string) ([]*domain.Appointment, error) {
	args := m.Called(ctx, subjectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

// ListStuck mocks the ListStuck method.
func (m *MockIntakeUseCase) ListStuck(
	ctx context.Context,
	olderThan time.Duration,
	limit int,
) ([]*domain.Appointment, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

// Redispatch mocks the Redispatch method.
func (m *MockIntakeUseCase) Redispatch(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// MockRegionalProcessor is a mock implementation of RegionalProcessor.
type MockRegionalProcessor struct {
	mock.Mock
}

// Country mocks the Country method.
func (m *MockRegionalProcessor) Country() domain.CountryCode {
	args := m.Called()
	return args.Get(0).(domain.CountryCode)
}

// ProcessPending mocks the ProcessPending method.
func (m *MockRegionalProcessor) ProcessPending(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

// MockCompletionReconciler is a mock implementation of CompletionReconciler.
type MockCompletionReconciler struct {
	mock.Mock
}

// Reconcile mocks the Reconcile method.
func (m *MockCompletionReconciler) Reconcile(ctx context.Context, signal domain.CompletionSignal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}
