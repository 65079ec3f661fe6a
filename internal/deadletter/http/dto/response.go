// Package dto provides data transfer objects for the dead-letter HTTP API.
package dto

import (
	"time"

	"github.com/allisson/appointments/internal/deadletter/domain"
)

// DeadLetterResponse represents a dead letter in API responses. The payload is
// returned as the raw message body.
type DeadLetterResponse struct {
	ID         string            `json:"id"`
	Channel    string            `json:"channel"`
	MessageKey string            `json:"message_key"`
	Payload    string            `json:"payload"`
	Metadata   map[string]string `json:"metadata"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"last_error"`
	Status     string            `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  *time.Time        `json:"updated_at,omitempty"`
}

// ListDeadLettersResponse wraps a page of dead letters.
type ListDeadLettersResponse struct {
	Data []DeadLetterResponse `json:"data"`
}

// MapDeadLetterToResponse converts a domain dead letter into an API response.
func MapDeadLetterToResponse(deadLetter *domain.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:         deadLetter.ID.String(),
		Channel:    deadLetter.Channel,
		MessageKey: deadLetter.MessageKey,
		Payload:    string(deadLetter.Payload),
		Metadata:   deadLetter.Metadata,
		Attempts:   deadLetter.Attempts,
		LastError:  deadLetter.LastError,
		Status:     string(deadLetter.Status),
		CreatedAt:  deadLetter.CreatedAt,
		UpdatedAt:  deadLetter.UpdatedAt,
	}
}

// MapDeadLettersToListResponse converts dead letters into a list response.
func MapDeadLettersToListResponse(deadLetters []*domain.DeadLetter) ListDeadLettersResponse {
	data := make([]DeadLetterResponse, 0, len(deadLetters))
	for _, deadLetter := range deadLetters {
		data = append(data, MapDeadLetterToResponse(deadLetter))
	}
	return ListDeadLettersResponse{Data: data}
}
