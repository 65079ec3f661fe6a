// Package domain defines core domain models and errors for appointments.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. The only legal transition is
// pending to completed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// IsValid reports whether the status is a known lifecycle state.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusCompleted
}

// CanTransitionTo reports whether moving from s to next is a forward transition.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next == StatusCompleted
}

// CountryCode is an ISO 3166-1 alpha-2 code selecting the regional store.
type CountryCode string

// String returns the country code as a plain string.
func (c CountryCode) String() string {
	return string(c)
}

// Appointment is a request by a subject to occupy a schedule slot in a country.
// The ID is assigned once at creation and is the idempotency key of every
// downstream write.
type Appointment struct {
	ID           uuid.UUID
	SubjectID    string
	ScheduleSlot int64
	CountryCode  CountryCode
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// NewAppointment builds a pending appointment with a fresh time-ordered id.
func NewAppointment(subjectID string, scheduleSlot int64, country CountryCode) *Appointment {
	return &Appointment{
		ID:           uuid.Must(uuid.NewV7()),
		SubjectID:    subjectID,
		ScheduleSlot: scheduleSlot,
		CountryCode:  country,
		Status:       StatusPending,
		CreatedAt:    time.Now().UTC(),
	}
}

// Complete moves the appointment to completed. It returns false and leaves the
// appointment untouched when it is already completed.
func (a *Appointment) Complete(at time.Time) bool {
	if !a.Status.CanTransitionTo(StatusCompleted) {
		return false
	}
	updatedAt := at.UTC()
	a.Status = StatusCompleted
	a.UpdatedAt = &updatedAt
	return true
}

// ScheduleInput carries an intake request before validation. ScheduleSlot is a
// pointer so that an absent slot can be told apart from slot zero.
type ScheduleInput struct {
	SubjectID    string
	ScheduleSlot *int64
	CountryCode  string
}

// Validate checks that every required field is present.
func (in ScheduleInput) Validate() error {
	if strings.TrimSpace(in.SubjectID) == "" || in.ScheduleSlot == nil ||
		strings.TrimSpace(in.CountryCode) == "" {
		return ErrMissingRequiredFields
	}
	return nil
}

// CompletionSignal announces that the regional copy of an appointment exists.
type CompletionSignal struct {
	AppointmentID uuid.UUID
	Appointment   *Appointment
}

// NewCompletionSignal builds the signal for a regionally persisted appointment.
func NewCompletionSignal(appointment *Appointment) CompletionSignal {
	return CompletionSignal{
		AppointmentID: appointment.ID,
		Appointment:   appointment,
	}
}
