// Package domain defines the dead-letter holding area entities.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/allisson/appointments/internal/errors"
)

// Status represents the state of a dead letter.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRequeued Status = "requeued"
)

// DeadLetter is a message that exhausted its delivery attempts or was rejected
// as permanently unprocessable. Payload and Metadata are kept verbatim so the
// message can be republished unchanged.
type DeadLetter struct {
	ID         uuid.UUID
	Channel    string
	MessageKey string
	Payload    []byte
	Metadata   map[string]string
	Attempts   int
	LastError  string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  *time.Time
}

// NewDeadLetter builds a pending dead letter for a failed message.
func NewDeadLetter(
	channel, messageKey string,
	payload []byte,
	metadata map[string]string,
	attempts int,
	lastError string,
) *DeadLetter {
	if metadata == nil {
		metadata = map[string]string{}
	}
	return &DeadLetter{
		ID:         uuid.Must(uuid.NewV7()),
		Channel:    channel,
		MessageKey: messageKey,
		Payload:    payload,
		Metadata:   metadata,
		Attempts:   attempts,
		LastError:  lastError,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// MarkRequeued records that the message was republished.
func (d *DeadLetter) MarkRequeued(at time.Time) {
	updatedAt := at.UTC()
	d.Status = StatusRequeued
	d.UpdatedAt = &updatedAt
}

var (
	// ErrDeadLetterNotFound indicates no dead letter exists with the given id.
	ErrDeadLetterNotFound = errors.Wrap(errors.ErrNotFound, "dead letter not found")

	// ErrAlreadyRequeued indicates the dead letter was already republished.
	ErrAlreadyRequeued = errors.Wrap(errors.ErrConflict, "dead letter already requeued")
)
