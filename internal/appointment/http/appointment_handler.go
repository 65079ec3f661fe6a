// Package http provides HTTP handlers for scheduling and looking up appointments.
package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/appointments/internal/appointment/http/dto"
	appointmentUseCase "github.com/allisson/appointments/internal/appointment/usecase"
	"github.com/allisson/appointments/internal/httputil"
	customValidation "github.com/allisson/appointments/internal/validation"
)

var errMissingBody = errors.New("the request body is required")

// AppointmentHandler handles HTTP requests for the appointment intake router.
type AppointmentHandler struct {
	intakeUseCase appointmentUseCase.IntakeUseCase
	logger        *slog.Logger
}

// NewAppointmentHandler creates a new appointment handler.
func NewAppointmentHandler(
	intakeUseCase appointmentUseCase.IntakeUseCase,
	logger *slog.Logger,
) *AppointmentHandler {
	return &AppointmentHandler{
		intakeUseCase: intakeUseCase,
		logger:        logger,
	}
}

// ScheduleHandler accepts an appointment request.
// POST /v1/appointments
// Returns 202 Accepted with the appointment id once the pending row is stored
// and the appointment is dispatched to its country.
func (h *AppointmentHandler) ScheduleHandler(c *gin.Context) {
	var req dto.ScheduleAppointmentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errMissingBody
		}
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	appointment, err := h.intakeUseCase.Schedule(c.Request.Context(), req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusAccepted, dto.MapAppointmentToScheduleResponse(appointment))
}

// ListHandler returns every appointment of a subject as recorded in the central ledger.
// GET /v1/appointments?subject_id=S1
func (h *AppointmentHandler) ListHandler(c *gin.Context) {
	appointments, err := h.intakeUseCase.Lookup(c.Request.Context(), c.Query("subject_id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAppointmentsToListResponse(appointments))
}
