package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/allisson/appointments/internal/appointment/domain"
	appointmentUseCase "github.com/allisson/appointments/internal/appointment/usecase"
)

// stuckAppointment is the report row of one pending appointment.
type stuckAppointment struct {
	ID           string    `json:"id"`
	SubjectID    string    `json:"subject_id"`
	CountryCode  string    `json:"country_code"`
	ScheduleSlot int64     `json:"schedule_slot"`
	CreatedAt    time.Time `json:"created_at"`
	Redispatched bool      `json:"redispatched"`
	Error        string    `json:"error,omitempty"`
}

// RunStuckAppointments lists appointments still pending after olderThan and,
// when redispatch is set, publishes each of them to its region again. Regional
// writes are idempotent on the appointment id, so a redispatch never creates a
// duplicate.
//
// Requirements: Central ledger must be migrated and the dispatch channels reachable.
func RunStuckAppointments(
	ctx context.Context,
	intakeUseCase appointmentUseCase.IntakeUseCase,
	logger *slog.Logger,
	writer io.Writer,
	olderThan time.Duration,
	limit int,
	redispatch bool,
	format string,
) error {
	if olderThan <= 0 {
		return fmt.Errorf("older-than must be a positive duration, got: %s", olderThan)
	}
	if limit <= 0 {
		return fmt.Errorf("limit must be a positive number, got: %d", limit)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("listing stuck appointments",
		slog.Duration("older_than", olderThan),
		slog.Int("limit", limit),
		slog.Bool("redispatch", redispatch),
	)

	appointments, err := intakeUseCase.ListStuck(ctx, olderThan, limit)
	if err != nil {
		return fmt.Errorf("failed to list stuck appointments: %w", err)
	}

	rows := make([]stuckAppointment, 0, len(appointments))
	failed := 0
	for _, appointment := range appointments {
		row := newStuckAppointment(appointment)
		if redispatch {
			if err := intakeUseCase.Redispatch(ctx, appointment); err != nil {
				failed++
				row.Error = err.Error()
				logger.Error("failed to redispatch appointment",
					slog.String("appointment_id", appointment.ID.String()),
					slog.Any("error", err),
				)
			} else {
				row.Redispatched = true
			}
		}
		rows = append(rows, row)
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]interface{}{
			"count":        len(rows),
			"appointments": rows,
		}); err != nil {
			return err
		}
	} else {
		outputStuckText(writer, rows, olderThan, redispatch)
	}

	logger.Info("stuck appointment sweep completed",
		slog.Int("count", len(rows)),
		slog.Int("failed", failed),
	)

	if failed > 0 {
		return fmt.Errorf("failed to redispatch %d appointment(s)", failed)
	}
	return nil
}

func newStuckAppointment(appointment *domain.Appointment) stuckAppointment {
	return stuckAppointment{
		ID:           appointment.ID.String(),
		SubjectID:    appointment.SubjectID,
		CountryCode:  appointment.CountryCode.String(),
		ScheduleSlot: appointment.ScheduleSlot,
		CreatedAt:    appointment.CreatedAt,
	}
}

// outputStuckText outputs the report in human-readable text format.
func outputStuckText(writer io.Writer, rows []stuckAppointment, olderThan time.Duration, redispatch bool) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintf(writer, "No appointments pending for more than %s\n", olderThan)
		return
	}

	_, _ = fmt.Fprintf(writer, "Found %d appointment(s) pending for more than %s\n\n", len(rows), olderThan)
	for _, row := range rows {
		_, _ = fmt.Fprintf(writer, "  %s  %s  %s  %s",
			row.ID, row.CountryCode, row.SubjectID, row.CreatedAt.Format(time.RFC3339))
		switch {
		case !redispatch:
		case row.Redispatched:
			_, _ = fmt.Fprint(writer, "  redispatched")
		default:
			_, _ = fmt.Fprintf(writer, "  failed: %s", row.Error)
		}
		_, _ = fmt.Fprintln(writer)
	}
}
