package usecase

import (
	"context"
	"time"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/metrics"
)

const metricsDomain = "appointments"

func metricsStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// intakeUseCaseWithMetrics decorates IntakeUseCase with metrics instrumentation.
type intakeUseCaseWithMetrics struct {
	next    IntakeUseCase
	metrics metrics.BusinessMetrics
}

// NewIntakeUseCaseWithMetrics wraps an IntakeUseCase with metrics recording.
func NewIntakeUseCaseWithMetrics(useCase IntakeUseCase, m metrics.BusinessMetrics) IntakeUseCase {
	return &intakeUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (i *intakeUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metricsStatus(err)
	i.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	i.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// Schedule records metrics for appointment intake.
func (i *intakeUseCaseWithMetrics) Schedule(
	ctx context.Context,
	input domain.ScheduleInput,
) (*domain.Appointment, error) {
	start := time.Now()
	appointment, err := i.next.Schedule(ctx, input)
	i.record(ctx, "schedule", start, err)
	return appointment, err
}

// Lookup records metrics for appointment lookup by subject.
func (i *intakeUseCaseWithMetrics) Lookup(ctx context.Context, subjectID string) ([]*domain.Appointment, error) {
	start := time.Now()
	appointments, err := i.next.Lookup(ctx, subjectID)
	i.record(ctx, "lookup", start, err)
	return appointments, err
}

// ListStuck records metrics for the stuck appointment sweep.
func (i *intakeUseCaseWithMetrics) ListStuck(
	ctx context.Context,
	olderThan time.Duration,
	limit int,
) ([]*domain.Appointment, error) {
	start := time.Now()
	appointments, err := i.next.ListStuck(ctx, olderThan, limit)
	i.record(ctx, "list_stuck", start, err)
	return appointments, err
}

// Redispatch records metrics for appointment redispatch.
func (i *intakeUseCaseWithMetrics) Redispatch(ctx context.Context, appointment *domain.Appointment) error {
	start := time.Now()
	err := i.next.Redispatch(ctx, appointment)
	i.record(ctx, "redispatch", start, err)
	return err
}

// regionalProcessorWithMetrics decorates RegionalProcessor with metrics instrumentation.
type regionalProcessorWithMetrics struct {
	next    RegionalProcessor
	metrics metrics.BusinessMetrics
}

// NewRegionalProcessorWithMetrics wraps a RegionalProcessor with metrics recording.
func NewRegionalProcessorWithMetrics(processor RegionalProcessor, m metrics.BusinessMetrics) RegionalProcessor {
	return &regionalProcessorWithMetrics{
		next:    processor,
		metrics: m,
	}
}

// Country returns the wrapped processor's country.
func (p *regionalProcessorWithMetrics) Country() domain.CountryCode {
	return p.next.Country()
}

// ProcessPending records metrics for regional persistence.
func (p *regionalProcessorWithMetrics) ProcessPending(ctx context.Context, appointment *domain.Appointment) error {
	start := time.Now()
	err := p.next.ProcessPending(ctx, appointment)

	status := metricsStatus(err)
	p.metrics.RecordOperation(ctx, metricsDomain, "process_pending", status)
	p.metrics.RecordDuration(ctx, metricsDomain, "process_pending", time.Since(start), status)

	return err
}

// completionReconcilerWithMetrics decorates CompletionReconciler with metrics instrumentation.
type completionReconcilerWithMetrics struct {
	next    CompletionReconciler
	metrics metrics.BusinessMetrics
}

// NewCompletionReconcilerWithMetrics wraps a CompletionReconciler with metrics recording.
func NewCompletionReconcilerWithMetrics(
	reconciler CompletionReconciler,
	m metrics.BusinessMetrics,
) CompletionReconciler {
	return &completionReconcilerWithMetrics{
		next:    reconciler,
		metrics: m,
	}
}

// Reconcile records metrics for completion reconciliation.
func (r *completionReconcilerWithMetrics) Reconcile(ctx context.Context, signal domain.CompletionSignal) error {
	start := time.Now()
	err := r.next.Reconcile(ctx, signal)

	status := metricsStatus(err)
	r.metrics.RecordOperation(ctx, metricsDomain, "reconcile", status)
	r.metrics.RecordDuration(ctx, metricsDomain, "reconcile", time.Since(start), status)

	return err
}
