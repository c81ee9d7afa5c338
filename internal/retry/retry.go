// Package retry runs an operation with bounded attempts and capped exponential backoff.
package retry

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/clock"
)

// Class tells Do whether an error may be retried.
type Class int

const (
	Retryable Class = iota
	Fatal
)

const (
	defaultBaseDelay = 100 * time.Millisecond
	defaultMaxDelay  = 5 * time.Second
)

// Policy configures Do. MaxAttempts counts the first call, so MaxAttempts 3 means two retries.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      time.Duration

	// Classify defaults to retrying every error.
	Classify func(error) Class

	// OnRetry is called before waiting for the next attempt.
	OnRetry func(attempt int, wait time.Duration, err error)
}

// Do calls fn until it succeeds, returns a fatal error, or the attempts are exhausted.
// The last error from fn is returned on exhaustion; a done context returns its error.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	p = p.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if p.Classify(err) == Fatal || attempt == p.MaxAttempts {
			break
		}

		wait := p.backoff(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, wait, err)
		}
		if err := clock.SleepWithContext(ctx, wait); err != nil {
			return err
		}
	}

	if lastErr == nil {
		lastErr = errors.New("retry: exhausted without error")
	}
	return lastErr
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultBaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultMaxDelay
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Classify == nil {
		p.Classify = func(error) Class { return Retryable }
	}
	return p
}

func (p Policy) backoff(attempt int) time.Duration {
	wait := p.MaxDelay
	if shift := attempt - 1; shift < 32 {
		if d := p.BaseDelay << shift; d > 0 && d < p.MaxDelay {
			wait = d
		}
	}
	if p.Jitter > 0 {
		wait += time.Duration(rand.Int64N(int64(p.Jitter)))
	}
	return wait
}
