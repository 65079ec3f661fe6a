package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// intakeUseCase implements IntakeUseCase.
type intakeUseCase struct {
	ledger  LedgerRepository
	regions *RegionRegistry
	timeout time.Duration
}

// NewIntakeUseCase creates the intake router. A zero timeout disables the
// per-call deadline.
func NewIntakeUseCase(ledger LedgerRepository, regions *RegionRegistry, timeout time.Duration) IntakeUseCase {
	return &intakeUseCase{
		ledger:  ledger,
		regions: regions,
		timeout: timeout,
	}
}

// Schedule validates the request, records it in the ledger as pending and
// dispatches it to the country's channel. Nothing is published when the ledger
// insert fails. A publish failure leaves the pending row behind; the stuck
// appointment sweep picks it up later.
func (i *intakeUseCase) Schedule(ctx context.Context, input domain.ScheduleInput) (*domain.Appointment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	// Matched exactly: "pe" or " PE" is not a supported country.
	country := domain.CountryCode(input.CountryCode)
	region, ok := i.regions.Lookup(country)
	if !ok {
		return nil, apperrors.Wrapf(
			domain.ErrUnsupportedCountry,
			"country_code must be one of %s",
			i.regions,
		)
	}
	if region.Dispatch == nil {
		return nil, fmt.Errorf("region %s has no dispatch publisher", country)
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	appointment := domain.NewAppointment(strings.TrimSpace(input.SubjectID), *input.ScheduleSlot, country)

	if err := i.ledger.Insert(ctx, appointment); err != nil {
		return nil, apperrors.Classify(apperrors.ErrStore, err)
	}

	if err := region.Dispatch.Publish(ctx, appointment); err != nil {
		return nil, apperrors.Classify(apperrors.ErrDispatch, err)
	}

	return appointment, nil
}

// Lookup returns every ledger row for the subject.
func (i *intakeUseCase) Lookup(ctx context.Context, subjectID string) ([]*domain.Appointment, error) {
	subjectID = strings.TrimSpace(subjectID)
	if subjectID == "" {
		return nil, domain.ErrMissingSubject
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	appointments, err := i.ledger.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, apperrors.Classify(apperrors.ErrStore, err)
	}
	if appointments == nil {
		appointments = []*domain.Appointment{}
	}
	return appointments, nil
}

// ListStuck returns pending appointments older than the given age.
func (i *intakeUseCase) ListStuck(
	ctx context.Context,
	olderThan time.Duration,
	limit int,
) ([]*domain.Appointment, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	before := time.Now().UTC().Add(-olderThan)
	appointments, err := i.ledger.ListPendingBefore(ctx, before, limit)
	if err != nil {
		return nil, apperrors.Classify(apperrors.ErrStore, err)
	}
	return appointments, nil
}

// Redispatch publishes a pending appointment to its region again. Regional
// writes are upserts, so a duplicate delivery is harmless.
func (i *intakeUseCase) Redispatch(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.Status != domain.StatusPending {
		return apperrors.Wrapf(
			domain.ErrInvalidStatusTransition,
			"appointment %s is %s",
			appointment.ID,
			appointment.Status,
		)
	}

	region, ok := i.regions.Lookup(appointment.CountryCode)
	if !ok || region.Dispatch == nil {
		return apperrors.Wrapf(domain.ErrUnsupportedCountry, "country_code %s", appointment.CountryCode)
	}

	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	if err := region.Dispatch.Publish(ctx, appointment); err != nil {
		return apperrors.Classify(apperrors.ErrDispatch, err)
	}
	return nil
}

func (i *intakeUseCase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, i.timeout)
}
