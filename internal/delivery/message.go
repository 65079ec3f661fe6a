package delivery

import (
	"context"
)

// MetadataKey is the metadata entry carrying the message's idempotency key.
const MetadataKey = "message_key"

// Message is a transport-neutral received message.
type Message struct {
	ID       string
	Body     []byte
	Metadata map[string]string
}

// Key returns the idempotency key stamped by the publisher, if any.
func (m Message) Key() string {
	return m.Metadata[MetadataKey]
}

// Delivery is a received message awaiting settlement. Exactly one of Ack or
// Nack must be called.
type Delivery interface {
	Message() Message
	Ack()
	// Nack makes the message available for redelivery. Transports that cannot
	// nack let the ack deadline expire instead.
	Nack()
}

// Receiver pulls deliveries from a subscription. Receive blocks until a
// message arrives or ctx is done.
type Receiver interface {
	Receive(ctx context.Context) (Delivery, error)
}

// Handler processes one message. Returning nil acknowledges it.
type Handler func(ctx context.Context, msg Message) error

// DeadLetterSink stores messages that exhausted their attempts.
type DeadLetterSink interface {
	Record(ctx context.Context, channel string, msg Message, attempts int, cause error) error
}
