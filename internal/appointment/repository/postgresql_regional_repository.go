package repository

import (
	"context"
	"database/sql"

	"github.com/allisson/appointments/internal/appointment/domain"
	"github.com/allisson/appointments/internal/database"
	apperrors "github.com/allisson/appointments/internal/errors"
)

// PostgreSQLRegionalRepository is one country's regional store on PostgreSQL.
type PostgreSQLRegionalRepository struct {
	db *sql.DB
}

// NewPostgreSQLRegionalRepository creates a new PostgreSQLRegionalRepository.
func NewPostgreSQLRegionalRepository(db *sql.DB) *PostgreSQLRegionalRepository {
	return &PostgreSQLRegionalRepository{db: db}
}

// Upsert writes the appointment keyed by id. A completed row keeps its status.
func (p *PostgreSQLRegionalRepository) Upsert(ctx context.Context, appointment *domain.Appointment) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO appointments (` + appointmentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (id) DO UPDATE SET
			  status = CASE WHEN appointments.status = 'completed'
			           THEN appointments.status ELSE EXCLUDED.status END,
			  updated_at = CASE WHEN appointments.status = 'completed'
			               THEN appointments.updated_at ELSE EXCLUDED.updated_at END`

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
		return apperrors.Wrap(err, "failed to upsert regional appointment")
	}
	return nil
}
