// Package retry provides the exponential backoff policy that governs
// redelivery of failed fulfillment attempts. The policy is a pure function of
// the attempt number so it can be tested in isolation from any channel or
// transport implementation.
package retry

import (
	"time"

	"ingestion/internal/pkg/errs"
)

const (
	// DefaultMaxAttempts is the delivery attempt budget before a message is
	// routed to the terminal failure path.
	DefaultMaxAttempts = 5

	// DefaultMinDelay is the delay before the first redelivery.
	DefaultMinDelay = 1 * time.Second

	// DefaultMaxDelay caps the backoff growth.
	DefaultMaxDelay = 30 * time.Second

	// DefaultMultiplier is the exponential growth factor between attempts.
	DefaultMultiplier = 2.0
)

// Policy calculates the delay before each redelivery attempt.
// Delays grow exponentially from MinDelay by Multiplier, capped at MaxDelay.
// The zero value is invalid; use NewPolicy or DefaultPolicy.
type Policy struct {
	maxAttempts int
	minDelay    time.Duration
	maxDelay    time.Duration
	multiplier  float64
}

// NewPolicy creates a backoff policy with the given bounds.
// maxAttempts must be positive, minDelay must be positive and not exceed
// maxDelay, and multiplier must be at least 1.
func NewPolicy(maxAttempts int, minDelay, maxDelay time.Duration, multiplier float64) (Policy, error) {
	if maxAttempts <= 0 {
		return Policy{}, errs.NewValueIsInvalidError("maxAttempts")
	}
	if minDelay <= 0 {
		return Policy{}, errs.NewValueIsInvalidError("minDelay")
	}
	if maxDelay < minDelay {
		return Policy{}, errs.NewValueIsInvalidError("maxDelay")
	}
	if multiplier < 1 {
		return Policy{}, errs.NewValueIsInvalidError("multiplier")
	}

	return Policy{
		maxAttempts: maxAttempts,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		multiplier:  multiplier,
	}, nil
}

// DefaultPolicy returns the reference policy: 5 attempts, 1s minimum,
// 30s maximum, multiplier 2.
func DefaultPolicy() Policy {
	policy, _ := NewPolicy(DefaultMaxAttempts, DefaultMinDelay, DefaultMaxDelay, DefaultMultiplier)
	return policy
}

// MaxAttempts returns the delivery attempt budget.
func (p Policy) MaxAttempts() int {
	return p.maxAttempts
}

// MinDelay returns the base backoff delay.
func (p Policy) MinDelay() time.Duration {
	return p.minDelay
}

// Delay returns the backoff delay that precedes the given attempt.
// Attempt numbers start at 1; the first attempt has no delay.
// Attempts past the budget are capped at the maximum delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delay := p.minDelay
	for i := 2; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.multiplier)
		if delay >= p.maxDelay {
			return p.maxDelay
		}
	}

	if delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// Exhausted reports whether the attempt budget is spent after the given
// number of completed attempts.
func (p Policy) Exhausted(attempts int) bool {
	return attempts >= p.maxAttempts
}
