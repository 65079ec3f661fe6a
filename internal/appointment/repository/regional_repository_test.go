package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLRegionalRepository_Upsert(t *testing.T) {
	t.Run("Upsert keyed by id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRegionalRepository(db)
		appointment := newTestAppointment()
		idBytes, err := appointment.ID.MarshalBinary()
		require.NoError(t, err)

		// Redelivery executes the same statement twice; the second one hits the
		// duplicate key branch and reports two affected rows.
		mock.ExpectExec("INSERT INTO appointments (.+) ON DUPLICATE KEY UPDATE").
			WithArgs(idBytes, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO appointments (.+) ON DUPLICATE KEY UPDATE").
			WithArgs(idBytes, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 2))

		require.NoError(t, repo.Upsert(context.Background(), appointment))
		require.NoError(t, repo.Upsert(context.Background(), appointment))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewMySQLRegionalRepository(db)

		mock.ExpectExec("INSERT INTO appointments").WillReturnError(sql.ErrConnDone)

		err := repo.Upsert(context.Background(), newTestAppointment())
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.Contains(t, err.Error(), "failed to upsert regional appointment")
	})
}

func TestPostgreSQLRegionalRepository_Upsert(t *testing.T) {
	t.Run("Upsert keyed by id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLRegionalRepository(db)
		appointment := newTestAppointment()

		mock.ExpectExec("INSERT INTO appointments (.+) ON CONFLICT \\(id\\) DO UPDATE").
			WithArgs(appointment.ID, "S1", int64(42), "PE", "pending", appointment.CreatedAt, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Upsert(context.Background(), appointment))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Driver error", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewPostgreSQLRegionalRepository(db)

		mock.ExpectExec("INSERT INTO appointments").WillReturnError(sql.ErrConnDone)

		err := repo.Upsert(context.Background(), newTestAppointment())
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}
