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

// MySQLLedgerRepository implements the central ledger for MySQL. Ids are
// stored as BINARY(16).
type MySQLLedgerRepository struct {
	db *sql.DB
}

// NewMySQLLedgerRepository creates a new MySQLLedgerRepository.
func NewMySQLLedgerRepository(db *sql.DB) *MySQLLedgerRepository {
	return &MySQLLedgerRepository{db: db}
}

// Insert stores a new appointment.
func (m *MySQLLedgerRepository) Insert(ctx context.Context, appointment *domain.Appointment) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := appointment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal appointment id")
	}

	query := `INSERT INTO appointments (` + appointmentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
func (m *MySQLLedgerRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal appointment id")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`

	appointment, err := scanMySQLAppointment(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get appointment")
	}
	return appointment, nil
}

// UpdateStatus applies a forward transition guarded by the current status.
func (m *MySQLLedgerRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.Status,
	updatedAt time.Time,
) (bool, error) {
	if !domain.StatusPending.CanTransitionTo(status) {
		return false, domain.ErrInvalidStatusTransition
	}

	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal appointment id")
	}

	query := `UPDATE appointments
			  SET status = ?, updated_at = ?
			  WHERE id = ? AND status = ?`

	result, err := querier.ExecContext(ctx, query, status, updatedAt, idBytes, domain.StatusPending)
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

	var current domain.Status
	err = querier.QueryRowContext(ctx, `SELECT status FROM appointments WHERE id = ?`, idBytes).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, apperrors.ErrNotFound
		}
		return false, apperrors.Wrap(err, "failed to read appointment status")
	}
	return false, nil
}

// ListBySubject returns every appointment of a subject, newest first.
func (m *MySQLLedgerRepository) ListBySubject(
	ctx context.Context,
	subjectID string,
) ([]*domain.Appointment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + appointmentColumns + `
			  FROM appointments
			  WHERE subject_id = ?
			  ORDER BY created_at DESC`

	rows, err := querier.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list appointments by subject")
	}
	return scanMySQLAppointments(rows)
}

// ListPendingBefore returns pending appointments created before the cutoff, oldest first.
func (m *MySQLLedgerRepository) ListPendingBefore(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*domain.Appointment, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + appointmentColumns + `
			  FROM appointments
			  WHERE status = ? AND created_at < ?
			  ORDER BY created_at ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, domain.StatusPending, before, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list pending appointments")
	}
	return scanMySQLAppointments(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLAppointment(row rowScanner) (*domain.Appointment, error) {
	var appointment domain.Appointment
	var idBytes []byte

	err := row.Scan(
		&idBytes,
		&appointment.SubjectID,
		&appointment.ScheduleSlot,
		&appointment.CountryCode,
		&appointment.Status,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := appointment.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal appointment id")
	}
	appointment.CreatedAt = appointment.CreatedAt.UTC()
	return &appointment, nil
}

func scanMySQLAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	defer rows.Close() //nolint:errcheck

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanMySQLAppointment(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan appointment")
		}
		appointments = append(appointments, appointment)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate appointments")
	}
	return appointments, nil
}
