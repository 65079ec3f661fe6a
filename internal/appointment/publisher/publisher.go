// Package publisher encodes saga messages and sends them on their channels.
package publisher

import (
	"context"
	"strings"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/appointment/message"
	"github.com/allisson/appointments/internal/delivery"
	apperrors "github.com/allisson/appointments/internal/errors"
	"github.com/allisson/appointments/internal/messaging"
)

// CompletionChannel names the completion channel.
const CompletionChannel = "completion"

// DispatchChannel names the regional dispatch channel of a country.
func DispatchChannel(country domain.CountryCode) string {
	return "dispatch." + strings.ToLower(country.String())
}

// DispatchPublisher publishes pending appointments on one country's channel.
type DispatchPublisher struct {
	country domain.CountryCode
	sender  messaging.Sender
}

// NewDispatchPublisher creates a publisher bound to a country's channel.
func NewDispatchPublisher(country domain.CountryCode, sender messaging.Sender) *DispatchPublisher {
	return &DispatchPublisher{
		country: country,
		sender:  sender,
	}
}

// Publish sends the appointment. Appointments of other countries are refused
// so nothing ever lands on the wrong regional channel.
func (p *DispatchPublisher) Publish(ctx context.Context, appointment *domain.Appointment) error {
	if appointment.CountryCode != p.country {
		return apperrors.Wrapf(
			domain.ErrRegionMismatch,
			"cannot publish %s appointment on %s channel",
			appointment.CountryCode,
			p.country,
		)
	}

	body, err := message.EncodeAppointment(appointment)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode appointment")
	}

	return p.sender.Send(ctx, body, map[string]string{
		message.MetadataType:    message.TypeAppointmentPending,
		message.MetadataCountry: appointment.CountryCode.String(),
		delivery.MetadataKey:    appointment.ID.String(),
	})
}

// CompletionPublisher publishes completion signals.
type CompletionPublisher struct {
	sender messaging.Sender
}

// NewCompletionPublisher creates a publisher for the completion channel.
func NewCompletionPublisher(sender messaging.Sender) *CompletionPublisher {
	return &CompletionPublisher{sender: sender}
}

// Publish sends the completion signal.
func (p *CompletionPublisher) Publish(ctx context.Context, signal domain.CompletionSignal) error {
	body, err := message.EncodeCompletion(signal)
	if err != nil {
		return apperrors.Wrap(err, "failed to encode completion signal")
	}

	return p.sender.Send(ctx, body, map[string]string{
		message.MetadataType:    message.TypeAppointmentCompleted,
		message.MetadataCountry: signal.Appointment.CountryCode.String(),
		delivery.MetadataKey:    signal.AppointmentID.String(),
	})
}
