package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/appointments/internal/deadletter/domain"
	deadLetterMocks "github.com/allisson/appointments/internal/deadletter/usecase/mocks"
)

func TestRunListDeadLetters(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("text-output", func(t *testing.T) {
		deadLetter := domain.NewDeadLetter("dispatch.pe", "k1", []byte("p"), nil, 5, "regional store down")
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("List", ctx, "dispatch.pe", 0, 50).Return([]*domain.DeadLetter{deadLetter}, nil)

		var out bytes.Buffer
		err := RunListDeadLetters(ctx, mockUseCase, logger, &out, "dispatch.pe", 0, 50, "text")

		require.NoError(t, err)
		assert.Contains(t, out.String(), deadLetter.ID.String())
		assert.Contains(t, out.String(), "attempts=5")
		assert.Contains(t, out.String(), "regional store down")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		deadLetter := domain.NewDeadLetter("completion", "k2", []byte("p"), map[string]string{"a": "b"}, 3, "boom")
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("List", ctx, "", 10, 20).Return([]*domain.DeadLetter{deadLetter}, nil)

		var out bytes.Buffer
		err := RunListDeadLetters(ctx, mockUseCase, logger, &out, "", 10, 20, "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"channel": "completion"`)
		assert.Contains(t, out.String(), `"a": "b"`)
		assert.NotContains(t, out.String(), "payload")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("empty", func(t *testing.T) {
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("List", ctx, "", 0, 50).Return([]*domain.DeadLetter{}, nil)

		var out bytes.Buffer
		require.NoError(t, RunListDeadLetters(ctx, mockUseCase, logger, &out, "", 0, 50, "text"))
		assert.Contains(t, out.String(), "No dead letters found")
	})

	t.Run("invalid-arguments", func(t *testing.T) {
		mockUseCase := &deadLetterMocks.MockUseCase{}

		err := RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, "", -1, 50, "text")
		assert.ErrorContains(t, err, "offset must not be negative")

		err = RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, "", 0, 0, "text")
		assert.ErrorContains(t, err, "must be between 1 and 200")

		err = RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, "", 0, 201, "text")
		assert.ErrorContains(t, err, "must be between 1 and 200")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("use-case-error", func(t *testing.T) {
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("List", ctx, "", 0, 50).Return(nil, errors.New("db down"))

		err := RunListDeadLetters(ctx, mockUseCase, logger, &bytes.Buffer{}, "", 0, 50, "text")
		assert.ErrorContains(t, err, "failed to list dead letters")
	})
}

func TestRunRequeueDeadLetter(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	t.Run("success", func(t *testing.T) {
		deadLetter := domain.NewDeadLetter("dispatch.cl", "k1", []byte("p"), nil, 5, "boom")
		deadLetter.MarkRequeued(time.Now())
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("Requeue", ctx, deadLetter.ID).Return(deadLetter, nil)

		var out bytes.Buffer
		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &out, deadLetter.ID.String(), "text")

		require.NoError(t, err)
		assert.Contains(t, out.String(), "requeued on dispatch.cl")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("json-output", func(t *testing.T) {
		deadLetter := domain.NewDeadLetter("dispatch.cl", "k1", []byte("p"), nil, 5, "boom")
		deadLetter.MarkRequeued(time.Now())
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("Requeue", ctx, deadLetter.ID).Return(deadLetter, nil)

		var out bytes.Buffer
		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &out, deadLetter.ID.String(), "json")

		require.NoError(t, err)
		assert.Contains(t, out.String(), `"status": "requeued"`)
	})

	t.Run("invalid-id", func(t *testing.T) {
		mockUseCase := &deadLetterMocks.MockUseCase{}

		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &bytes.Buffer{}, "not-a-uuid", "text")
		assert.ErrorContains(t, err, "invalid dead letter id")
		mockUseCase.AssertExpectations(t)
	})

	t.Run("not-found", func(t *testing.T) {
		id := uuid.New()
		mockUseCase := &deadLetterMocks.MockUseCase{}
		mockUseCase.On("Requeue", ctx, id).Return(nil, domain.ErrDeadLetterNotFound)

		err := RunRequeueDeadLetter(ctx, mockUseCase, logger, &bytes.Buffer{}, id.String(), "text")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDeadLetterNotFound)
	})
}
