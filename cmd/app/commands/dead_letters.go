package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/deadletter/domain"
	deadLetterUseCase "github.com/allisson/appointments/internal/deadletter/usecase"
	"github.com/allisson/appointments/internal/httputil"
)

// deadLetterRow is the CLI view of a dead letter. The payload is omitted.
type deadLetterRow struct {
	ID         string            `json:"id"`
	Channel    string            `json:"channel"`
	MessageKey string            `json:"message_key"`
	Metadata   map[string]string `json:"metadata"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"last_error"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

func newDeadLetterRow(deadLetter *domain.DeadLetter) deadLetterRow {
	return deadLetterRow{
		ID:         deadLetter.ID.String(),
		Channel:    deadLetter.Channel,
		MessageKey: deadLetter.MessageKey,
		Metadata:   deadLetter.Metadata,
		Attempts:   deadLetter.Attempts,
		LastError:  deadLetter.LastError,
		Status:     string(deadLetter.Status),
		CreatedAt:  deadLetter.CreatedAt,
	}
}

// RunListDeadLetters prints dead letters newest first, optionally restricted to
// one channel.
func RunListDeadLetters(
	ctx context.Context,
	useCase deadLetterUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	channel string,
	offset, limit int,
	format string,
) error {
	if offset < 0 {
		return fmt.Errorf("offset must not be negative, got: %d", offset)
	}
	if err := httputil.DeadLetterPage.CheckLimit(limit); err != nil {
		return err
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	deadLetters, err := useCase.List(ctx, channel, offset, limit)
	if err != nil {
		return fmt.Errorf("failed to list dead letters: %w", err)
	}

	rows := make([]deadLetterRow, 0, len(deadLetters))
	for _, deadLetter := range deadLetters {
		rows = append(rows, newDeadLetterRow(deadLetter))
	}

	if format == "json" {
		if err := writeJSON(writer, map[string]interface{}{"dead_letters": rows}); err != nil {
			return err
		}
	} else {
		outputDeadLettersText(writer, rows)
	}

	logger.Info("dead letters listed",
		slog.String("channel", channel),
		slog.Int("count", len(rows)),
	)
	return nil
}

// RunRequeueDeadLetter republishes a dead letter on its original channel.
func RunRequeueDeadLetter(
	ctx context.Context,
	useCase deadLetterUseCase.UseCase,
	logger *slog.Logger,
	writer io.Writer,
	rawID string,
	format string,
) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid dead letter id: %w", err)
	}
	if err := validateFormat(format); err != nil {
		return err
	}

	deadLetter, err := useCase.Requeue(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to requeue dead letter: %w", err)
	}

	if format == "json" {
		if err := writeJSON(writer, newDeadLetterRow(deadLetter)); err != nil {
			return err
		}
	} else {
		_, _ = fmt.Fprintf(writer, "Dead letter %s requeued on %s\n", deadLetter.ID, deadLetter.Channel)
	}

	logger.Info("dead letter requeued",
		slog.String("dead_letter_id", deadLetter.ID.String()),
		slog.String("channel", deadLetter.Channel),
	)
	return nil
}

// outputDeadLettersText outputs dead letters in human-readable text format.
func outputDeadLettersText(writer io.Writer, rows []deadLetterRow) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(writer, "No dead letters found")
		return
	}

	for _, row := range rows {
		_, _ = fmt.Fprintf(writer, "%s  %-14s  %-9s  attempts=%d  key=%s\n",
			row.ID, row.Channel, row.Status, row.Attempts, row.MessageKey)
		_, _ = fmt.Fprintf(writer, "    %s  %s\n", row.CreatedAt.Format(time.RFC3339), row.LastError)
	}
}
