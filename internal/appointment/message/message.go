// Package message defines the wire schemas exchanged between the saga stages.
// Every message carries the appointment id so consumers can deduplicate.
package message

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
	customValidation "github.com/allisson/appointments/internal/validation"
)

// Metadata keys attached to every published message.
const (
	MetadataType    = "message_type"
	MetadataCountry = "country_code"
)

// Message type names.
const (
	TypeAppointmentPending   = "appointment.pending"
	TypeAppointmentCompleted = "appointment.completed"
)

// ErrMalformed indicates a payload that cannot be decoded or fails schema validation.
var ErrMalformed = apperrors.Wrap(apperrors.ErrInvalidInput, "malformed message")

// Appointment is the regional dispatch schema.
type Appointment struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	ScheduleSlot *int64     `json:"schedule_slot"`
	CountryCode  string     `json:"country_code"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Validate checks the appointment schema.
func (m *Appointment) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.ID, validation.Required, customValidation.UUID),
		validation.Field(&m.SubjectID, validation.Required, customValidation.NotBlank),
		validation.Field(&m.ScheduleSlot, validation.NotNil),
		validation.Field(&m.CountryCode, validation.Required, customValidation.CountryCode),
		validation.Field(&m.Status, validation.Required, validation.By(knownStatus)),
		validation.Field(&m.CreatedAt, validation.Required),
	)
}

func knownStatus(value interface{}) error {
	status, _ := value.(string)
	if !domain.Status(status).IsValid() {
		return errors.New("must be a known appointment status")
	}
	return nil
}

// Completion is the completion channel schema.
type Completion struct {
	AppointmentID string       `json:"appointment_id"`
	Appointment   *Appointment `json:"appointment"`
}

// Validate checks the completion schema, including the embedded snapshot.
func (m *Completion) Validate() error {
	return validation.ValidateStruct(m,
		validation.Field(&m.AppointmentID, validation.Required, customValidation.UUID),
		validation.Field(&m.Appointment, validation.Required),
	)
}

// FromDomain maps a domain appointment into its wire form.
func FromDomain(appointment *domain.Appointment) *Appointment {
	slot := appointment.ScheduleSlot
	return &Appointment{
		ID:           appointment.ID.String(),
		SubjectID:    appointment.SubjectID,
		ScheduleSlot: &slot,
		CountryCode:  appointment.CountryCode.String(),
		Status:       string(appointment.Status),
		CreatedAt:    appointment.CreatedAt.UTC(),
		UpdatedAt:    appointment.UpdatedAt,
	}
}

// ToDomain maps a validated wire appointment back into the domain model.
func (m *Appointment) ToDomain() (*domain.Appointment, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, apperrors.Wrap(ErrMalformed, err.Error())
	}
	var slot int64
	if m.ScheduleSlot != nil {
		slot = *m.ScheduleSlot
	}
	return &domain.Appointment{
		ID:           id,
		SubjectID:    m.SubjectID,
		ScheduleSlot: slot,
		CountryCode:  domain.CountryCode(m.CountryCode),
		Status:       domain.Status(m.Status),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt,
	}, nil
}

// EncodeAppointment serializes an appointment for regional dispatch.
func EncodeAppointment(appointment *domain.Appointment) ([]byte, error) {
	return json.Marshal(FromDomain(appointment))
}

// DecodeAppointment parses and validates a regional dispatch payload.
func DecodeAppointment(body []byte) (*domain.Appointment, error) {
	var m Appointment
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, apperrors.Wrap(ErrMalformed, err.Error())
	}
	if err := m.Validate(); err != nil {
		return nil, apperrors.Wrap(ErrMalformed, err.Error())
	}
	return m.ToDomain()
}

// EncodeCompletion serializes a completion signal.
func EncodeCompletion(signal domain.CompletionSignal) ([]byte, error) {
	return json.Marshal(&Completion{
		AppointmentID: signal.AppointmentID.String(),
		Appointment:   FromDomain(signal.Appointment),
	})
}

// DecodeCompletion parses and validates a completion payload.
func DecodeCompletion(body []byte) (domain.CompletionSignal, error) {
	var m Completion
	if err := json.Unmarshal(body, &m); err != nil {
		return domain.CompletionSignal{}, apperrors.Wrap(ErrMalformed, err.Error())
	}
	if err := m.Validate(); err != nil {
		return domain.CompletionSignal{}, apperrors.Wrap(ErrMalformed, err.Error())
	}
	appointment, err := m.Appointment.ToDomain()
	if err != nil {
		return domain.CompletionSignal{}, err
	}
	if appointment.ID != uuid.MustParse(m.AppointmentID) {
		return domain.CompletionSignal{}, apperrors.Wrap(ErrMalformed, "appointment_id does not match snapshot id")
	}
	return domain.CompletionSignal{AppointmentID: appointment.ID, Appointment: appointment}, nil
}
