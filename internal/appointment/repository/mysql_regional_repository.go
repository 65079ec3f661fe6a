package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/database"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// MySQLRegionalRepository is one country's regional store on MySQL.
type MySQLRegionalRepository struct {
	db *sql.DB
}

// NewMySQLRegionalRepository creates a new MySQLRegionalRepository.
func NewMySQLRegionalRepository(db *sql.DB) *MySQLRegionalRepository {
	return &MySQLRegionalRepository{db: db}
}

// Upsert writes the appointment keyed by id. Redelivered writes leave a single
// row and never move a completed row back to pending.
func (m *MySQLRegionalRepository) Upsert(ctx context.Context, appointment *domain.Appointment) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := appointment.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal appointment id")
	}

	// updated_at is assigned before status because MySQL evaluates the
	// assignments left to right against the already updated row.
	query := `INSERT INTO appointments (` + appointmentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  updated_at = IF(status = 'completed', updated_at, VALUES(updated_at)),
			  status = IF(status = 'completed', status, VALUES(status))`

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
		return apperrors.Wrap(err, "failed to upsert regional appointment")
	}
	return nil
}
