package dto

import (
	"time"

	"github.com/allisson/appointments/internal/appointment/domain"
)

// ScheduledMessage is returned once an appointment has been accepted.
const ScheduledMessage = "Appointment scheduled. Processing..."

// ScheduleAppointmentResponse is returned by POST /v1/appointments.
type ScheduleAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
	Message       string `json:"message"`
}

// AppointmentResponse represents an appointment in API responses.
type AppointmentResponse struct {
	ID           string     `json:"id"`
	SubjectID    string     `json:"subject_id"`
	ScheduleSlot int64      `json:"schedule_slot"`
	CountryCode  string     `json:"country_code"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// ListAppointmentsResponse wraps a subject's appointments.
type ListAppointmentsResponse struct {
	Data []AppointmentResponse `json:"data"`
}

// MapAppointmentToScheduleResponse converts an accepted appointment into the intake response.
func MapAppointmentToScheduleResponse(appointment *domain.Appointment) ScheduleAppointmentResponse {
	return ScheduleAppointmentResponse{
		AppointmentID: appointment.ID.String(),
		Message:       ScheduledMessage,
	}
}

// MapAppointmentToResponse converts a domain appointment into an API response.
func MapAppointmentToResponse(appointment *domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           appointment.ID.String(),
		SubjectID:    appointment.SubjectID,
		ScheduleSlot: appointment.ScheduleSlot,
		CountryCode:  appointment.CountryCode.String(),
		Status:       string(appointment.Status),
		CreatedAt:    appointment.CreatedAt,
		UpdatedAt:    appointment.UpdatedAt,
	}
}

// MapAppointmentsToListResponse converts appointments into a list response.
// The data field is always an array, never null.
func MapAppointmentsToListResponse(appointments []*domain.Appointment) ListAppointmentsResponse {
	data := make([]AppointmentResponse, 0, len(appointments))
	for _, appointment := range appointments {
		data = append(data, MapAppointmentToResponse(appointment))
	}
	return ListAppointmentsResponse{Data: data}
}
