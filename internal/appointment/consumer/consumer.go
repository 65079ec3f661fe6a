// Package consumer turns delivered messages into saga use case calls.
package consumer

import (
	"context"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/appointment/message"
	"github.com/allisson/appointments/internal/appointment/usecase"
	"github.com/allisson/appointments/internal/delivery"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// NewDispatchHandler handles a country's dispatch channel with its regional
// processor. Undecodable payloads and foreign appointments are permanent
// failures; everything else is retried.
func NewDispatchHandler(processor usecase.RegionalProcessor) delivery.Handler {
	return func(ctx context.Context, msg delivery.Message) error {
		if country, ok := msg.Metadata[message.MetadataCountry]; ok &&
			domain.CountryCode(country) != processor.Country() {
			return delivery.Permanent(apperrors.Wrapf(
				domain.ErrRegionMismatch,
				"message for %s delivered to %s",
				country,
				processor.Country(),
			))
		}

		appointment, err := message.DecodeAppointment(msg.Body)
		if err != nil {
			return delivery.Permanent(err)
		}

		if err := processor.ProcessPending(ctx, appointment); err != nil {
			if apperrors.Is(err, domain.ErrRegionMismatch) {
				return delivery.Permanent(err)
			}
			return err
		}
		return nil
	}
}

// NewCompletionHandler handles the completion channel with the reconciler.
// ErrAppointmentNotFoundYet stays retryable.
func NewCompletionHandler(reconciler usecase.CompletionReconciler) delivery.Handler {
	return func(ctx context.Context, msg delivery.Message) error {
		signal, err := message.DecodeCompletion(msg.Body)
		if err != nil {
			return delivery.Permanent(err)
		}
		return reconciler.Reconcile(ctx, signal)
	}
}
