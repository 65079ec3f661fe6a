package domain

import (
	"github.com/allisson/appointments/internal/errors"
)

// Appointment-specific error definitions.
var (
	// ErrMissingRequiredFields indicates subject, slot or country was absent.
	ErrMissingRequiredFields = errors.Wrap(
		errors.ErrMissingField,
		"the fields subject_id, schedule_slot and country_code are required",
	)

	// ErrMissingSubject indicates a lookup without a subject id.
	ErrMissingSubject = errors.Wrap(errors.ErrMissingField, "the subject_id query parameter is required")

	// ErrUnsupportedCountry indicates the country has no configured region.
	ErrUnsupportedCountry = errors.Wrap(errors.ErrInvalidInput, "unsupported country_code")

	// ErrAppointmentNotFoundYet indicates a completion signal arrived before the
	// ledger row is visible. Callers should retry.
	ErrAppointmentNotFoundYet = errors.Wrap(errors.ErrNotFound, "appointment not found yet")

	// ErrInvalidStatusTransition indicates a backwards or unknown status transition.
	ErrInvalidStatusTransition = errors.Wrap(errors.ErrConflict, "invalid status transition")

	// ErrRegionMismatch indicates an appointment was delivered to another country's processor.
	ErrRegionMismatch = errors.Wrap(errors.ErrInvalidInput, "appointment does not belong to this region")
)
