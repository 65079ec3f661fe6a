// Package delivery runs message handlers with at-least-once semantics: failed
// handlers are retried with a bounded backoff, and messages that cannot be
// handled are moved to a dead-letter store instead of being dropped.
package delivery

import (
	"fmt"
	"math"
	"time"

	"github.com/sethvargo/go-retry"
)

// Strategy selects the backoff curve between attempts.
type Strategy string

const (
	StrategyFixed       Strategy = "fixed"
	StrategyExponential Strategy = "exponential"
)

// Policy configures how a message is retried before it is dead-lettered.
type Policy struct {
	// MaxAttempts counts the first delivery, so 1 disables retries.
	MaxAttempts     int
	Strategy        Strategy
	InitialInterval time.Duration
	// MaxInterval caps a single exponential wait. Zero means uncapped.
	MaxInterval time.Duration
	// AttemptTimeout bounds each handler invocation. Zero means no bound.
	AttemptTimeout time.Duration
	// AckDeadline is how long the broker waits for a settlement before it
	// redelivers. When set, the whole retry loop must finish inside it.
	AckDeadline time.Duration
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     5,
		Strategy:        StrategyExponential,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     10 * time.Second,
		AttemptTimeout:  30 * time.Second,
		AckDeadline:     5 * time.Minute,
	}
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.Strategy != StrategyFixed && p.Strategy != StrategyExponential {
		return fmt.Errorf("unknown backoff strategy %q", p.Strategy)
	}
	if p.InitialInterval <= 0 {
		return fmt.Errorf("initial interval must be positive, got %s", p.InitialInterval)
	}
	if p.MaxInterval < 0 || p.AttemptTimeout < 0 || p.AckDeadline < 0 {
		return fmt.Errorf("max interval, attempt timeout and ack deadline must not be negative")
	}
	if p.AckDeadline == 0 {
		return nil
	}
	if p.AttemptTimeout == 0 {
		return fmt.Errorf("attempt timeout is required when an ack deadline of %s is set", p.AckDeadline)
	}
	if budget := p.RetryBudget(); budget >= p.AckDeadline {
		return fmt.Errorf(
			"retry budget %s of %d attempts does not fit in ack deadline %s",
			budget, p.MaxAttempts, p.AckDeadline,
		)
	}
	return nil
}

// RetryBudget is the longest time one message can stay unsettled: every
// attempt running into AttemptTimeout plus every backoff wait. It saturates
// at math.MaxInt64 and is meaningless when AttemptTimeout is zero.
func (p Policy) RetryBudget() time.Duration {
	if p.MaxAttempts < 1 {
		return 0
	}
	if p.AttemptTimeout > 0 && int64(p.MaxAttempts) > math.MaxInt64/int64(p.AttemptTimeout) {
		return math.MaxInt64
	}
	total := time.Duration(p.MaxAttempts) * p.AttemptTimeout
	if p.InitialInterval <= 0 {
		return total
	}

	backoff := p.Backoff()
	for {
		next, stop := backoff.Next()
		if stop {
			return total
		}
		total = saturatingAdd(total, next)
		if total == math.MaxInt64 {
			return total
		}
	}
}

func saturatingAdd(a, b time.Duration) time.Duration {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// Backoff builds a fresh backoff for one message. Backoffs are stateful and
// must not be shared between messages.
func (p Policy) Backoff() retry.Backoff {
	var backoff retry.Backoff
	switch p.Strategy {
	case StrategyFixed:
		backoff = retry.NewConstant(p.InitialInterval)
	default:
		backoff = retry.NewExponential(p.InitialInterval)
		if p.MaxInterval > 0 {
			backoff = retry.WithCappedDuration(p.MaxInterval, backoff)
		}
	}

	retries := p.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return retry.WithMaxRetries(uint64(retries), backoff)
}
