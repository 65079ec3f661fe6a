package messaging

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gocloud.dev/pubsub"
)

// Channel is an opened topic and, when consumed by this process, its subscription.
type Channel struct {
	Name         string
	Topic        *pubsub.Topic
	Subscription *pubsub.Subscription
}

// Channels owns every opened channel and shuts them down together.
type Channels struct {
	mu       sync.Mutex
	channels map[string]*Channel
}

// NewChannels creates an empty channel set.
func NewChannels() *Channels {
	return &Channels{channels: make(map[string]*Channel)}
}

// Open opens the topic and, when subscriptionURL is not empty, the subscription
// for a named channel. Opening a name twice returns the existing channel.
func (c *Channels) Open(ctx context.Context, name, topicURL, subscriptionURL string) (*Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ch, ok := c.channels[name]; ok {
		return ch, nil
	}

	topic, err := OpenTopic(ctx, topicURL)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", name, err)
	}
	ch := &Channel{Name: name, Topic: topic}

	if subscriptionURL != "" {
		sub, err := OpenSubscription(ctx, subscriptionURL)
		if err != nil {
			_ = topic.Shutdown(ctx)
			return nil, fmt.Errorf("channel %s: %w", name, err)
		}
		ch.Subscription = sub
	}

	c.channels[name] = ch
	return ch, nil
}

// Subscribe opens the subscription of an already opened channel. It is a no-op
// when the channel is already subscribed.
func (c *Channels) Subscribe(ctx context.Context, name, subscriptionURL string) (*Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.channels[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", name)
	}
	if ch.Subscription != nil {
		return ch, nil
	}

	sub, err := OpenSubscription(ctx, subscriptionURL)
	if err != nil {
		return nil, fmt.Errorf("channel %s: %w", name, err)
	}
	ch.Subscription = sub
	return ch, nil
}

// Sender returns a Sender for a named channel.
func (c *Channels) Sender(name string) (Sender, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.channels[name]
	if !ok {
		return nil, fmt.Errorf("unknown channel %q", name)
	}
	return NewTopicSender(ch.Topic), nil
}

// Names returns the registered channel names in sorted order.
func (c *Channels) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shutdown flushes topics and stops subscriptions.
func (c *Channels) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, ch := range c.channels {
		if ch.Subscription != nil {
			if err := ch.Subscription.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("subscription %s shutdown: %w", name, err))
			}
		}
		if err := ch.Topic.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("topic %s shutdown: %w", name, err))
		}
	}
	c.channels = make(map[string]*Channel)
	return errors.Join(errs...)
}
