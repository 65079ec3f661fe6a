package usecase

import (
	"context"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// regionalProcessor implements RegionalProcessor for one country.
type regionalProcessor struct {
	country     domain.CountryCode
	store       RegionalStore
	completions CompletionPublisher
}

// NewRegionalProcessor creates the processor bound to a country's store.
func NewRegionalProcessor(
	country domain.CountryCode,
	store RegionalStore,
	completions CompletionPublisher,
) RegionalProcessor {
	return &regionalProcessor{
		country:     country,
		store:       store,
		completions: completions,
	}
}

// Country returns the country this processor serves.
func (p *regionalProcessor) Country() domain.CountryCode {
	return p.country
}

// ProcessPending upserts the appointment into the regional store and then
// emits the completion signal. Any failure is returned so the message is
// redelivered; a second run converges because the upsert is keyed by id.
func (p *regionalProcessor) ProcessPending(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.CountryCode != p.country {
		return apperrors.Wrapf(
			domain.ErrRegionMismatch,
			"appointment %s is for %s, processor serves %s",
			appointment.ID,
			appointment.CountryCode,
			p.country,
		)
	}

	if err := p.store.Upsert(ctx, appointment); err != nil {
		return apperrors.Classify(apperrors.ErrStore, err)
	}

	if err := p.completions.Publish(ctx, domain.NewCompletionSignal(appointment)); err != nil {
		return apperrors.Classify(apperrors.ErrDispatch, err)
	}

	return nil
}
