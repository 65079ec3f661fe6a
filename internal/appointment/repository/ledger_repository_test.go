package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/appointments/internal/appointment/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, mock
}

func newTestAppointment() *domain.Appointment {
	return domain.NewAppointment("S1", 42, "PE")
}

var appointmentRowColumns = []string{
	"id", "subject_id", "schedule_slot", "country_code", "status", "created_at", "updated_at",
}

func TestPostgreSQLLedgerRepository_Insert(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)
		appointment := newTestAppointment()

		mock.ExpectExec("INSERT INTO appointments").
			WithArgs(
				appointment.ID,
				"S1",
				int64(42),
				"PE",
				"pending",
				appointment.CreatedAt,
				nil,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Insert(context.Background(), appointment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate id maps to conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		mock.ExpectExec("INSERT INTO appointments").
			WillReturnError(&pq.Error{Code: "23505"})

		err := repo.Insert(context.Background(), newTestAppointment())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})

	t.Run("Driver error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		mock.ExpectExec("INSERT INTO appointments").WillReturnError(sql.ErrConnDone)

		err := repo.Insert(context.Background(), newTestAppointment())
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Contains(t, err.Error(), "failed to insert appointment")
	})
}

func TestPostgreSQLLedgerRepository_Get(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)
		appointment := newTestAppointment()

		rows := sqlmock.NewRows(appointmentRowColumns).AddRow(
			appointment.ID.String(), "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil,
		)
		mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = ").
			WithArgs(appointment.ID).
			WillReturnRows(rows)

		got, err := repo.Get(context.Background(), appointment.ID)
		require.NoError(t, err)
		assert.Equal(t, appointment.ID, got.ID)
		assert.Equal(t, domain.StatusPending, got.Status)
		assert.Equal(t, domain.CountryCode("PE"), got.CountryCode)
		assert.Nil(t, got.UpdatedAt)
	})

	t.Run("Not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM appointments").WillReturnError(sql.ErrNoRows)

		got, err := repo.Get(context.Background(), newTestAppointment().ID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLLedgerRepository_UpdateStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("Pending row transitions", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)
		appointment := newTestAppointment()

		mock.ExpectExec("UPDATE appointments").
			WithArgs("completed", now, appointment.ID, "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		updated, err := repo.UpdateStatus(context.Background(), appointment.ID, domain.StatusCompleted, now)
		assert.NoError(t, err)
		assert.True(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already completed is a no-op", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)
		appointment := newTestAppointment()

		mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM appointments").
			WithArgs(appointment.ID).
			WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

		updated, err := repo.UpdateStatus(context.Background(), appointment.ID, domain.StatusCompleted, now)
		assert.NoError(t, err)
		assert.False(t, updated)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM appointments").WillReturnError(sql.ErrNoRows)

		updated, err := repo.UpdateStatus(
			context.Background(),
			newTestAppointment().ID,
			domain.StatusCompleted,
			now,
		)
		assert.False(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Backward transition rejected", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		updated, err := repo.UpdateStatus(
			context.Background(),
			newTestAppointment().ID,
			domain.StatusPending,
			now,
		)
		assert.False(t, updated)
		assert.ErrorIs(t, err, domain.ErrInvalidStatusTransition)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLLedgerRepository_ListBySubject(t *testing.T) {
	t.Run("Returns rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)
		first := newTestAppointment()
		second := newTestAppointment()
		updatedAt := time.Now().UTC()

		rows := sqlmock.NewRows(appointmentRowColumns).
			AddRow(second.ID.String(), "S1", int64(42), "PE", "completed", second.CreatedAt, updatedAt).
			AddRow(first.ID.String(), "S1", int64(42), "PE", "pending", first.CreatedAt, nil)
		mock.ExpectQuery("SELECT (.+) FROM appointments(.+)WHERE subject_id = ").
			WithArgs("S1").
			WillReturnRows(rows)

		appointments, err := repo.ListBySubject(context.Background(), "S1")
		require.NoError(t, err)
		require.Len(t, appointments, 2)
		assert.Equal(t, second.ID, appointments[0].ID)
		assert.Equal(t, domain.StatusCompleted, appointments[0].Status)
		require.NotNil(t, appointments[0].UpdatedAt)
		assert.Equal(t, first.ID, appointments[1].ID)
	})

	t.Run("Empty result is an empty slice", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLLedgerRepository(db)

		mock.ExpectQuery("SELECT (.+) FROM appointments").
			WillReturnRows(sqlmock.NewRows(appointmentRowColumns))

		appointments, err := repo.ListBySubject(context.Background(), "unknown")
		require.NoError(t, err)
		assert.NotNil(t, appointments)
		assert.Empty(t, appointments)
	})
}

func TestPostgreSQLLedgerRepository_ListPendingBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgreSQLLedgerRepository(db)
	appointment := newTestAppointment()
	cutoff := time.Now().UTC()

	rows := sqlmock.NewRows(appointmentRowColumns).
		AddRow(appointment.ID.String(), "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil)
	mock.ExpectQuery("SELECT (.+) FROM appointments(.+)WHERE status = ").
		WithArgs("pending", cutoff, 10).
		WillReturnRows(rows)

	appointments, err := repo.ListPendingBefore(context.Background(), cutoff, 10)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, appointment.ID, appointments[0].ID)
}

func TestMySQLLedgerRepository_Insert(t *testing.T) {
	t.Run("Stores binary id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLLedgerRepository(db)
		appointment := newTestAppointment()
		idBytes, err := appointment.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectExec("INSERT INTO appointments").
			WithArgs(idBytes, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err = repo.Insert(context.Background(), appointment)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate id maps to conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLLedgerRepository(db)

		mock.ExpectExec("INSERT INTO appointments").
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

		err := repo.Insert(context.Background(), newTestAppointment())
		assert.ErrorIs(t, err, apperrors.ErrConflict)
	})
}

func TestMySQLLedgerRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLLedgerRepository(db)
	appointment := newTestAppointment()
	idBytes, err := appointment.ID.MarshalBinary()
	require.NoError(t, err)

	rows := sqlmock.NewRows(appointmentRowColumns).
		AddRow(idBytes, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil)
	mock.ExpectQuery("SELECT (.+) FROM appointments WHERE id = ").
		WithArgs(idBytes).
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, appointment.ID, got.ID)
	assert.Equal(t, "S1", got.SubjectID)
	assert.Equal(t, int64(42), got.ScheduleSlot)
}

func TestMySQLLedgerRepository_UpdateStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("Pending row transitions", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLLedgerRepository(db)
		appointment := newTestAppointment()
		idBytes, err := appointment.ID.MarshalBinary()
		require.NoError(t, err)

		mock.ExpectExec("UPDATE appointments").
			WithArgs("completed", now, idBytes, "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		updated, err := repo.UpdateStatus(context.Background(), appointment.ID, domain.StatusCompleted, now)
		assert.NoError(t, err)
		assert.True(t, updated)
	})

	t.Run("Missing row is not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLLedgerRepository(db)

		mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT status FROM appointments").WillReturnError(sql.ErrNoRows)

		updated, err := repo.UpdateStatus(
			context.Background(),
			newTestAppointment().ID,
			domain.StatusCompleted,
			now,
		)
		assert.False(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("Update failure is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLLedgerRepository(db)

		mock.ExpectExec("UPDATE appointments").WillReturnError(sql.ErrConnDone)

		_, err := repo.UpdateStatus(context.Background(), newTestAppointment().ID, domain.StatusCompleted, now)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestMySQLLedgerRepository_ListBySubject(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewMySQLLedgerRepository(db)
	appointment := newTestAppointment()
	idBytes, err := appointment.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM appointments(.+)WHERE subject_id = ").
		WithArgs("S1").
		WillReturnRows(sqlmock.NewRows(appointmentRowColumns).
			AddRow(idBytes, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil))

	appointments, err := repo.ListBySubject(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, appointment.ID, appointments[0].ID)
}
