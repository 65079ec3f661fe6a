// Package repository implements persistence for the central appointment ledger
// and the per-country regional stores on PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/database"
	apperrors "github.com/allisson/appointments/internal/errors"
)

const appointmentColumns = `id, subject_id, schedule_slot, country_code, status, created_at, updated_at`

// PostgreSQLLedgerRepository implements the central ledger for PostgreSQL.
type PostgreSQLLedgerRepository struct {
	db *sql.DB
}

// NewPostgreSQLLedgerRepository creates a new PostgreSQLLedgerRepository.
func NewPostgreSQLLedgerRepository(db *sql.DB) *PostgreSQLLedgerRepository {
	return &PostgreSQLLedgerRepository{db: db}
}

// Insert stores a new appointment.
func (p *PostgreSQLLedgerRepository) Insert(ctx context.Context, appointment *domain.Appointment) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO appointments (` + appointmentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		appointment.ID,
		appointment.SubjectID,
		appointment.ScheduleSlot,
		appointment.CountryCode,
		appointment.Status,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.Wrap(apperrors.ErrConflict, "appointment already exists")
		}
		return apperrors.Wrap(err, "failed to insert appointment")
	}
	return nil
}

// Get retrieves an appointment by id.
func (p *PostgreSQLLedgerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment domain.Appointment
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&appointment.ID,
		&appointment.SubjectID,
		&appointment.ScheduleSlot,
		&appointment.CountryCode,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get appointment")
	}
	return &appointment, nil
}

// UpdateStatus applies a forward transition guarded by the current status, so
// concurrent or repeated completions update the row at most once.
func (p *PostgreSQLLedgerRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) (bool, error) {
	if !domain.StatusPending.CanTransitionTo(status) {
		return false, domain.ErrInvalidStatusTransition
	}

	querier := database.GetTx(ctx, p.db)

	query := `UPDATE appointments
			  SET status = $1, updated_at = $2
			  WHERE id = $3 AND status = $4`

	result, err := querier.ExecContext(ctx, query, status, updatedAt, id, domain.StatusPending)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to update appointment status")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows > 0 {
		return true, nil
	}

	// Nothing updated: either the row is missing or already transitioned.
	var current domain.Status
	err = querier.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = $1`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.ErrNotFound
		}
		return false, apperrors.Wrap(err, "failed to read appointment status")
	}
	return false, nil
}

// ListBySubject returns every appointment of a subject, newest first.
func (p *PostgreSQLLedgerRepository) ListBySubject(
	ctx context.Context,
	subjectID string,
) ([]*domain.Appointment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + appointmentColumns + `
			  FROM appointments
			  WHERE subject_id = $1
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list appointments by subject")
	}
	return scanPostgreSQLAppointments(rows)
}

// ListPendingBefore returns pending appointments created before the cutoff, oldest first.
func (p *PostgreSQLLedgerRepository) ListPendingBefore(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*domain.Appointment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + appointmentColumns + `
			  FROM appointments
			  WHERE status = $1 AND created_at < $2
			  ORDER BY created_at ASC
			  LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, domain.StatusPending, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending appointments")
	}
	return scanPostgreSQLAppointments(rows)
}

func scanPostgreSQLAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	defer rows.Close() //nolint:errcheck

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		var appointment domain.Appointment
		err := rows.Scan(
			&appointment.ID,
			&appointment.SubjectID,
			&appointment.ScheduleSlot,
			&appointment.CountryCode,
			&appointment.Status,
			&appointment.CreatedAt,
			&appointment.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan appointment")
		}
		appointments = append(appointments, &appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate appointments")
	}
	return appointments, nil
}
