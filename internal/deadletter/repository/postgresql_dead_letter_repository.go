// Package repository provides dead-letter persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/database"
	"github.com/allisson/appointments/internal/deadletter/domain"
	apperrors "github.com/allisson/appointments/internal/errors"
)

const deadLetterColumns = `id, channel, message_key, payload, metadata, attempts, last_error, status, created_at, updated_at`

// PostgreSQLDeadLetterRepository handles dead-letter persistence for PostgreSQL.
type PostgreSQLDeadLetterRepository struct {
	db *sql.DB
}

// NewPostgreSQLDeadLetterRepository creates a new PostgreSQLDeadLetterRepository.
func NewPostgreSQLDeadLetterRepository(db *sql.DB) *PostgreSQLDeadLetterRepository {
	return &PostgreSQLDeadLetterRepository{db: db}
}

// Upsert inserts a dead letter. A second record for the same channel and
// message key refreshes the existing row and returns it to pending, keeping
// its id.
func (p *PostgreSQLDeadLetterRepository) Upsert(ctx context.Context, deadLetter *domain.DeadLetter) error {
	querier := database.GetTx(ctx, p.db)

	metadata, err := json.Marshal(deadLetter.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter metadata")
	}

	query := `INSERT INTO dead_letters (` + deadLetterColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  ON CONFLICT (channel, message_key) DO UPDATE SET
			  payload = EXCLUDED.payload,
			  metadata = EXCLUDED.metadata,
			  attempts = EXCLUDED.attempts,
			  last_error = EXCLUDED.last_error,
			  status = EXCLUDED.status,
			  updated_at = EXCLUDED.created_at`

	_, err = querier.ExecContext(
		ctx,
		query,
		deadLetter.ID,
		deadLetter.Channel,
		deadLetter.MessageKey,
		deadLetter.Payload,
		string(metadata),
		deadLetter.Attempts,
		deadLetter.LastError,
		deadLetter.Status,
		deadLetter.CreatedAt,
		deadLetter.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to upsert dead letter")
	}
	return nil
}

// GetForUpdate retrieves a dead letter by id and locks it for the current transaction.
func (p *PostgreSQLDeadLetterRepository) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deadLetterColumns + ` FROM dead_letters WHERE id = $1 FOR UPDATE`

	var deadLetter domain.DeadLetter
	var metadata []byte
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&deadLetter.ID,
		&deadLetter.Channel,
		&deadLetter.MessageKey,
		&deadLetter.Payload,
		&metadata,
		&deadLetter.Attempts,
		&deadLetter.LastError,
		&deadLetter.Status,
		&deadLetter.CreatedAt,
		&deadLetter.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get dead letter")
	}

	if err := json.Unmarshal(metadata, &deadLetter.Metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal dead letter metadata")
	}
	return &deadLetter, nil
}

// List returns dead letters ordered by creation, optionally filtered by channel.
func (p *PostgreSQLDeadLetterRepository) List(
	ctx context.Context,
	channel string,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + deadLetterColumns + `
			  FROM dead_letters
			  WHERE ($1 = '' OR channel = $1)
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`

	rows, err := querier.QueryContext(ctx, query, channel, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	deadLetters := make([]*domain.DeadLetter, 0)
	for rows.Next() {
		var deadLetter domain.DeadLetter
		var metadata []byte
		err := rows.Scan(
			&deadLetter.ID,
			&deadLetter.Channel,
			&deadLetter.MessageKey,
			&deadLetter.Payload,
			&metadata,
			&deadLetter.Attempts,
			&deadLetter.LastError,
			&deadLetter.Status,
			&deadLetter.CreatedAt,
			&deadLetter.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dead letter")
		}
		if err := json.Unmarshal(metadata, &deadLetter.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal dead letter metadata")
		}
		deadLetters = append(deadLetters, &deadLetter)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}
	return deadLetters, nil
}

// Update persists the status of a dead letter.
func (p *PostgreSQLDeadLetterRepository) Update(ctx context.Context, deadLetter *domain.DeadLetter) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE dead_letters SET status = $1, updated_at = $2 WHERE id = $3`

	result, err := querier.ExecContext(ctx, query, deadLetter.Status, deadLetter.UpdatedAt, deadLetter.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update dead letter")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return domain.ErrDeadLetterNotFound
	}
	return nil
}
