package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// memoryLedger is an in-memory LedgerRepository with the same conditional
// transition semantics as the SQL implementations.
type memoryLedger struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]domain.Appointment
	insertErr error
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{rows: make(map[uuid.UUID]domain.Appointment)}
}

func (l *memoryLedger) Insert(_ context.Context, appointment *domain.Appointment) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.insertErr != nil {
		return l.insertErr
	}
	if _, exists := l.rows[appointment.ID]; exists {
		return apperrors.ErrConflict
	}
	l.rows[appointment.ID] = *appointment
	return nil
}

func (l *memoryLedger) Get(_ context.Context, id uuid.UUID) (*domain.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &row, nil
}

func (l *memoryLedger) UpdateStatus(
	_ context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	row, ok := l.rows[id]
	if !ok {
		return false, apperrors.ErrNotFound
	}
	if row.Status == status {
		return false, nil
	}
	if !row.Status.CanTransitionTo(status) {
		return false, domain.ErrInvalidStatusTransition
	}
	row.Status = status
	row.UpdatedAt = &updatedAt
	l.rows[id] = row
	return true, nil
}

func (l *memoryLedger) ListBySubject(_ context.Context, subjectID string) ([]*domain.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []*domain.Appointment
	for _, row := range l.rows {
		if row.SubjectID == subjectID {
			row := row
			result = append(result, &row)
		}
	}
	return result, nil
}

func (l *memoryLedger) ListPendingBefore(
	_ context.Context,
	before time.Time,
	limit int,
) ([]*domain.Appointment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var result []*domain.Appointment
	for _, row := range l.rows {
		if row.Status == domain.StatusPending && row.CreatedAt.Before(before) && len(result) < limit {
			row := row
			result = append(result, &row)
		}
	}
	return result, nil
}

// memoryRegionalStore is an in-memory idempotent RegionalStore.
type memoryRegionalStore struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]domain.Appointment
	upsertCalls int
	failures    int
}

func newMemoryRegionalStore() *memoryRegionalStore {
	return &memoryRegionalStore{rows: make(map[uuid.UUID]domain.Appointment)}
}

func (s *memoryRegionalStore) Upsert(_ context.Context, appointment *domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	if s.failures > 0 {
		s.failures--
		return errors.New("regional store unavailable")
	}
	if existing, ok := s.rows[appointment.ID]; ok && existing.Status == domain.StatusCompleted {
		return nil
	}
	s.rows[appointment.ID] = *appointment
	return nil
}

// queue collects published messages for manual delivery.
type queue[T any] struct {
	mu    sync.Mutex
	items []T
}

func (q *queue[T]) push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
}

func (q *queue[T]) drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

type queueDispatch struct{ queue[*domain.Appointment] }

func (d *queueDispatch) Publish(_ context.Context, appointment *domain.Appointment) error {
	d.push(appointment)
	return nil
}

type queueCompletions struct{ queue[domain.CompletionSignal] }

func (c *queueCompletions) Publish(_ context.Context, signal domain.CompletionSignal) error {
	c.push(signal)
	return nil
}

type sagaHarness struct {
	ledger      *memoryLedger
	stores      map[domain.CountryCode]*memoryRegionalStore
	dispatches  map[domain.CountryCode]*queueDispatch
	completions *queueCompletions
	intake      IntakeUseCase
	processors  map[domain.CountryCode]RegionalProcessor
	reconciler  CompletionReconciler
}

func newSagaHarness(t *testing.T) *sagaHarness {
	t.Helper()

	h := &sagaHarness{
		ledger:      newMemoryLedger(),
		stores:      make(map[domain.CountryCode]*memoryRegionalStore),
		dispatches:  make(map[domain.CountryCode]*queueDispatch),
		completions: &queueCompletions{},
		processors:  make(map[domain.CountryCode]RegionalProcessor),
	}

	var regions []Region
	for _, code := range []domain.CountryCode{"PE", "CL"} {
		h.stores[code] = newMemoryRegionalStore()
		h.dispatches[code] = &queueDispatch{}
		h.processors[code] = NewRegionalProcessor(code, h.stores[code], h.completions)
		regions = append(regions, Region{Code: code, Dispatch: h.dispatches[code]})
	}

	registry, err := NewRegionRegistry(regions...)
	require.NoError(t, err)

	h.intake = NewIntakeUseCase(h.ledger, registry, time.Second)
	h.reconciler = NewCompletionReconciler(h.ledger)
	return h
}

func (h *sagaHarness) schedule(t *testing.T, subject string, slot int64, country string) *domain.Appointment {
	t.Helper()
	appointment, err := h.intake.Schedule(context.Background(), domain.ScheduleInput{
		SubjectID:    subject,
		ScheduleSlot: &slot,
		CountryCode:  country,
	})
	require.NoError(t, err)
	return appointment
}

func (h *sagaHarness) ledgerRow(t *testing.T, id uuid.UUID) *domain.Appointment {
	t.Helper()
	row, err := h.ledger.Get(context.Background(), id)
	require.NoError(t, err)
	return row
}

func TestSaga_EndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newSagaHarness(t)

	appointment := h.schedule(t, "S1", 42, "PE")

	// Visible as pending through lookup before any regional work happens.
	pending, err := h.intake.Lookup(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, appointment.ID, pending[0].ID)
	assert.Equal(t, domain.StatusPending, pending[0].Status)

	dispatched := h.dispatches["PE"].drain()
	require.Len(t, dispatched, 1)
	assert.Empty(t, h.dispatches["CL"].drain())

	require.NoError(t, h.processors["PE"].ProcessPending(ctx, dispatched[0]))
	assert.Contains(t, h.stores["PE"].rows, appointment.ID)
	assert.NotContains(t, h.stores["CL"].rows, appointment.ID)

	signals := h.completions.drain()
	require.Len(t, signals, 1)
	require.NoError(t, h.reconciler.Reconcile(ctx, signals[0]))

	row := h.ledgerRow(t, appointment.ID)
	assert.Equal(t, domain.StatusCompleted, row.Status)
	assert.NotNil(t, row.UpdatedAt)

	list, err := h.intake.Lookup(ctx, "S1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, domain.StatusCompleted, list[0].Status)
}

func TestSaga_RedeliveryAfterRegionalFailure(t *testing.T) {
	ctx := context.Background()
	h := newSagaHarness(t)
	h.stores["CL"].failures = 1

	appointment := h.schedule(t, "S1", 1, "CL")
	dispatched := h.dispatches["CL"].drain()
	require.Len(t, dispatched, 1)

	// First delivery fails: nothing persisted, no signal
	err := h.processors["CL"].ProcessPending(ctx, dispatched[0])
	require.ErrorIs(t, err, apperrors.ErrStore)
	assert.Empty(t, h.completions.drain())

	// Redelivery succeeds
	require.NoError(t, h.processors["CL"].ProcessPending(ctx, dispatched[0]))

	assert.Equal(t, 2, h.stores["CL"].upsertCalls)
	assert.Len(t, h.stores["CL"].rows, 1)
	signals := h.completions.drain()
	require.Len(t, signals, 1)

	require.NoError(t, h.reconciler.Reconcile(ctx, signals[0]))
	assert.Equal(t, domain.StatusCompleted, h.ledgerRow(t, appointment.ID).Status)
}

func TestSaga_DuplicateDispatchConverges(t *testing.T) {
	ctx := context.Background()
	h := newSagaHarness(t)

	appointment := h.schedule(t, "S1", 1, "PE")
	dispatched := h.dispatches["PE"].drain()
	require.Len(t, dispatched, 1)

	for i := 0; i < 3; i++ {
		require.NoError(t, h.processors["PE"].ProcessPending(ctx, dispatched[0]))
	}
	assert.Len(t, h.stores["PE"].rows, 1)

	signals := h.completions.drain()
	require.Len(t, signals, 3)

	require.NoError(t, h.reconciler.Reconcile(ctx, signals[0]))
	first := *h.ledgerRow(t, appointment.ID).UpdatedAt

	for _, signal := range signals[1:] {
		require.NoError(t, h.reconciler.Reconcile(ctx, signal))
	}

	row := h.ledgerRow(t, appointment.ID)
	assert.Equal(t, domain.StatusCompleted, row.Status)
	assert.True(t, first.Equal(*row.UpdatedAt))
}

func TestSaga_CompletionBeforeLedgerRow(t *testing.T) {
	ctx := context.Background()
	h := newSagaHarness(t)

	appointment := domain.NewAppointment("S1", 1, "PE")
	signal := domain.NewCompletionSignal(appointment)

	err := h.reconciler.Reconcile(ctx, signal)
	require.ErrorIs(t, err, domain.ErrAppointmentNotFoundYet)

	require.NoError(t, h.ledger.Insert(ctx, appointment))
	require.NoError(t, h.reconciler.Reconcile(ctx, signal))
	assert.Equal(t, domain.StatusCompleted, h.ledgerRow(t, appointment.ID).Status)
}

func TestSaga_UnsupportedCountryLeavesNoTrace(t *testing.T) {
	h := newSagaHarness(t)
	slot := int64(1)

	_, err := h.intake.Schedule(context.Background(), domain.ScheduleInput{
		SubjectID:    "S1",
		ScheduleSlot: &slot,
		CountryCode:  "US",
	})

	require.ErrorIs(t, err, domain.ErrUnsupportedCountry)
	assert.Empty(t, h.ledger.rows)
	assert.Empty(t, h.dispatches["PE"].drain())
	assert.Empty(t, h.dispatches["CL"].drain())
}

func TestSaga_LedgerInsertFailureNeverDispatches(t *testing.T) {
	h := newSagaHarness(t)
	h.ledger.insertErr = errors.New("ledger unavailable")
	slot := int64(1)

	_, err := h.intake.Schedule(context.Background(), domain.ScheduleInput{
		SubjectID:    "S1",
		ScheduleSlot: &slot,
		CountryCode:  "PE",
	})

	require.ErrorIs(t, err, apperrors.ErrStore)
	assert.Empty(t, h.dispatches["PE"].drain())
}

func TestSaga_StuckSweepRedispatches(t *testing.T) {
	ctx := context.Background()
	h := newSagaHarness(t)

	appointment := h.schedule(t, "S1", 1, "CL")
	h.dispatches["CL"].drain() // dispatch lost

	stuck, err := h.intake.ListStuck(ctx, -time.Minute, 10)
	require.NoError(t, err)
	require.Len(t, stuck, 1)
	assert.Equal(t, appointment.ID, stuck[0].ID)

	require.NoError(t, h.intake.Redispatch(ctx, stuck[0]))
	redispatched := h.dispatches["CL"].drain()
	require.Len(t, redispatched, 1)
	assert.Equal(t, appointment.ID, redispatched[0].ID)
}
