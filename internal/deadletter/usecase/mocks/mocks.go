// Package mocks provides testify mocks for the dead-letter use case interfaces.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/allisson/appointments/internal/deadletter/domain"
	"github.com/allisson/appointments/internal/delivery"
	"github.com/allisson/appointments/internal/messaging"
)

// MockDeadLetterRepository is a mock implementation of usecase.DeadLetterRepository.
type MockDeadLetterRepository struct {
	mock.Mock
}

func (m *MockDeadLetterRepository) Upsert(ctx context.Context, deadLetter *domain.DeadLetter) error {
	args := m.Called(ctx, deadLetter)
	return args.Error(0)
}

func (m *MockDeadLetterRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

func (m *MockDeadLetterRepository) List(
	ctx context.Context,
	channel string,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	args := m.Called(ctx, channel, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeadLetter), args.Error(1)
}

func (m *MockDeadLetterRepository) Update(ctx context.Context, deadLetter *domain.DeadLetter) error {
	args := m.Called(ctx, deadLetter)
	return args.Error(0)
}

// MockSenderResolver is a mock implementation of usecase.SenderResolver.
type MockSenderResolver struct {
	mock.Mock
}

func (m *MockSenderResolver) Sender(name string) (messaging.Sender, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(messaging.Sender), args.Error(1)
}

// MockSender is a mock implementation of messaging.Sender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, body []byte, metadata map[string]string) error {
	args := m.Called(ctx, body, metadata)
	return args.Error(0)
}

// MockUseCase is a mock implementation of usecase.UseCase.
type MockUseCase struct {
	mock.Mock
}

func (m *MockUseCase) Record(
	ctx context.Context,
	channel string,
	msg delivery.Message,
	attempts int,
	cause error,
) error {
	args := m.Called(ctx, channel, msg, attempts, cause)
	return args.Error(0)
}

func (m *MockUseCase) List(
	ctx context.Context,
	channel string,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	args := m.Called(ctx, channel, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.DeadLetter), args.Error(1)
}

func (m *MockUseCase) Requeue(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeadLetter), args.Error(1)
}

// MockTxManager runs the callback inline unless an error is configured.
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}
