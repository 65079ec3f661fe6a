// Package messaging adapts gocloud.dev/pubsub topics and subscriptions to the
// delivery supervisor. Channels are opened by URL so the same code runs on the
// in-memory driver (mem://), AWS SNS/SQS (awssns://, awssqs://) and RabbitMQ
// (rabbit://, connection taken from RABBIT_SERVER_URL).
package messaging

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/awssnssqs"
	_ "gocloud.dev/pubsub/mempubsub"
	_ "gocloud.dev/pubsub/rabbitpubsub"

	"github.com/allisson/appointments/internal/delivery"
)

// OpenTopic opens a topic from a driver URL.
func OpenTopic(ctx context.Context, url string) (*pubsub.Topic, error) {
	topic, err := pubsub.OpenTopic(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open topic %q: %w", url, err)
	}
	return topic, nil
}

// OpenSubscription opens a subscription from a driver URL. For mem:// the
// topic with the same name must already be open.
func OpenSubscription(ctx context.Context, url string) (*pubsub.Subscription, error) {
	sub, err := pubsub.OpenSubscription(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to open subscription %q: %w", url, err)
	}
	return sub, nil
}

// SubscriptionURL applies ackDeadline to an in-memory subscription URL through
// its ackdeadline parameter. An explicit ackdeadline shorter than ackDeadline is
// rejected. Other schemes are returned unchanged: their deadline is configured
// on the broker.
func SubscriptionURL(rawURL string, ackDeadline time.Duration) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid subscription url %q: %w", rawURL, err)
	}
	if u.Scheme != "mem" || ackDeadline <= 0 {
		return rawURL, nil
	}

	q := u.Query()
	if explicit := q.Get(ackDeadlineParam); explicit != "" {
		d, err := time.ParseDuration(explicit)
		if err != nil {
			return "", fmt.Errorf("invalid ackdeadline in %q: %w", rawURL, err)
		}
		if d < ackDeadline {
			return "", fmt.Errorf("ackdeadline %s in %q is shorter than the delivery ack deadline %s", d, rawURL, ackDeadline)
		}
		return rawURL, nil
	}

	q.Set(ackDeadlineParam, ackDeadline.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

const ackDeadlineParam = "ackdeadline"

// Sender publishes raw payloads on a channel.
type Sender interface {
	Send(ctx context.Context, body []byte, metadata map[string]string) error
}

// TopicSender publishes to a gocloud topic.
type TopicSender struct {
	topic *pubsub.Topic
}

// NewTopicSender wraps a topic as a Sender.
func NewTopicSender(topic *pubsub.Topic) *TopicSender {
	return &TopicSender{topic: topic}
}

// Send publishes body with metadata and waits for the broker to accept it.
func (s *TopicSender) Send(ctx context.Context, body []byte, metadata map[string]string) error {
	if err := s.topic.Send(ctx, &pubsub.Message{Body: body, Metadata: metadata}); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SubscriptionReceiver adapts a gocloud subscription to delivery.Receiver.
type SubscriptionReceiver struct {
	sub *pubsub.Subscription
}

// NewSubscriptionReceiver wraps a subscription as a delivery.Receiver.
func NewSubscriptionReceiver(sub *pubsub.Subscription) *SubscriptionReceiver {
	return &SubscriptionReceiver{sub: sub}
}

// Receive blocks for the next message.
func (r *SubscriptionReceiver) Receive(ctx context.Context) (delivery.Delivery, error) {
	msg, err := r.sub.Receive(ctx)
	if err != nil {
		return nil, err
	}
	return &pubsubDelivery{msg: msg}, nil
}

// pubsubDelivery implements delivery.Delivery for a gocloud message.
type pubsubDelivery struct {
	msg *pubsub.Message
}

func (d *pubsubDelivery) Message() delivery.Message {
	return delivery.Message{
		ID:       d.msg.LoggableID,
		Body:     d.msg.Body,
		Metadata: d.msg.Metadata,
	}
}

func (d *pubsubDelivery) Ack() {
	d.msg.Ack()
}

// Nack returns the message to the broker. Drivers without nack support
// redeliver once the ack deadline passes.
func (d *pubsubDelivery) Nack() {
	if d.msg.Nackable() {
		d.msg.Nack()
	}
}
