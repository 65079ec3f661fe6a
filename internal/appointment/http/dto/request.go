// Package dto provides data transfer objects for the appointment HTTP API.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/allisson/appointments/internal/appointment/domain"
)

// ScheduleAppointmentRequest contains the parameters for scheduling an appointment.
// Presence of the fields is checked by the intake use case so that a missing
// field is reported as such and not as a format error.
type ScheduleAppointmentRequest struct {
	SubjectID    string `json:"subject_id"`
	ScheduleSlot *int64 `json:"schedule_slot"`
	CountryCode  string `json:"country_code"`
}

// Validate checks the format of the fields that are present.
func (r *ScheduleAppointmentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SubjectID, validation.Length(0, 255)),
		validation.Field(&r.ScheduleSlot, validation.Min(int64(0))),
		validation.Field(&r.CountryCode, validation.Length(0, 2)),
	)
}

// ToInput converts the request into the intake use case input.
func (r *ScheduleAppointmentRequest) ToInput() domain.ScheduleInput {
	return domain.ScheduleInput{
		SubjectID:    r.SubjectID,
		ScheduleSlot: r.ScheduleSlot,
		CountryCode:  r.CountryCode,
	}
}
