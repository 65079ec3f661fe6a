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

// MySQLDeadLetterRepository handles dead-letter persistence for MySQL.
type MySQLDeadLetterRepository struct {
	db *sql.DB
}

// NewMySQLDeadLetterRepository creates a new MySQLDeadLetterRepository.
func NewMySQLDeadLetterRepository(db *sql.DB) *MySQLDeadLetterRepository {
	return &MySQLDeadLetterRepository{db: db}
}

// Upsert inserts a dead letter. A second record for the same channel and
// message key refreshes the existing row and returns it to pending, keeping
// its id.
func (m *MySQLDeadLetterRepository) Upsert(ctx context.Context, deadLetter *domain.DeadLetter) error {
	querier := database.GetTx(ctx, m.db)

	// Convert UUID to bytes for MySQL BINARY(16)
	idBytes, err := deadLetter.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter id")
	}

	metadata, err := json.Marshal(deadLetter.Metadata)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter metadata")
	}

	query := `INSERT INTO dead_letters (` + deadLetterColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON DUPLICATE KEY UPDATE
			  payload = VALUES(payload),
			  metadata = VALUES(metadata),
			  attempts = VALUES(attempts),
			  last_error = VALUES(last_error),
			  status = VALUES(status),
			  updated_at = VALUES(created_at)`

	_, err = querier.ExecContext(
		ctx,
		query,
		idBytes,
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
func (m *MySQLDeadLetterRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal dead letter id")
	}

	query := `SELECT ` + deadLetterColumns + ` FROM dead_letters WHERE id = ? FOR UPDATE`

	deadLetter, err := scanMySQLDeadLetter(querier.QueryRowContext(ctx, query, idBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrDeadLetterNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get dead letter")
	}
	return deadLetter, nil
}

// List returns dead letters ordered by creation, optionally filtered by channel.
func (m *MySQLDeadLetterRepository) List(
	ctx context.Context,
	channel string,
	offset, limit int,
) ([]*domain.DeadLetter, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + deadLetterColumns + `
			  FROM dead_letters
			  WHERE (? = '' OR channel = ?)
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, channel, channel, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list dead letters")
	}
	defer rows.Close() //nolint:errcheck

	deadLetters := make([]*domain.DeadLetter, 0)
	for rows.Next() {
		deadLetter, err := scanMySQLDeadLetter(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan dead letter")
		}
		deadLetters = append(deadLetters, deadLetter)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate dead letters")
	}
	return deadLetters, nil
}

// Update persists the status of a dead letter.
func (m *MySQLDeadLetterRepository) Update(ctx context.Context, deadLetter *domain.DeadLetter) error {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := deadLetter.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal dead letter id")
	}

	query := `UPDATE dead_letters SET status = ?, updated_at = ? WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, deadLetter.Status, deadLetter.UpdatedAt, idBytes)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLDeadLetter(row rowScanner) (*domain.DeadLetter, error) {
	var deadLetter domain.DeadLetter
	var idBytes []byte
	var metadata []byte

	err := row.Scan(
		&idBytes,
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
		return nil, err
	}

	// Convert bytes back to UUID
	if err := deadLetter.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal dead letter id")
	}
	if err := json.Unmarshal(metadata, &deadLetter.Metadata); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal dead letter metadata")
	}
	return &deadLetter, nil
}
