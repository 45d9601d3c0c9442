package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/turtle-syndicate/bridge-settler/metrics"
)

const (
	defaultMaxAttempts    = 5
	defaultBackoffInitial = 500 * time.Millisecond
	defaultBackoffMax     = 8 * time.Second
)

var (
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// RetryPolicy retries transient failures with capped exponential backoff.
// Terminal failures and context errors are returned on the first occurrence.
type RetryPolicy struct {
	Operation      string
	MaxAttempts    int
	BackoffInitial time.Duration
	BackoffMax     time.Duration

	SleepFn func(ctx context.Context, d time.Duration) error
}

func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		decision := Classify(err)
		if !decision.IsTransient() {
			return err
		}
		if attempt == attempts {
			break
		}

		delay := p.Delay(attempt)
		log.WithFields(log.Fields{
			"operation": p.Operation,
			"attempt":   attempt,
			"reason":    decision.Reason,
			"delay":     delay,
		}).WithError(err).Warn("[RETRY] Transient failure, retrying")
		metrics.RetryAttempts.WithLabelValues(p.Operation).Inc()

		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempts, lastErr)
}

// Delay returns the wait after the given failed attempt, doubling from
// BackoffInitial up to BackoffMax.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	base := p.BackoffInitial
	if base <= 0 {
		base = defaultBackoffInitial
	}
	max := p.BackoffMax
	if max <= 0 {
		max = defaultBackoffMax
	}
	if max < base {
		max = base
	}

	delay := base
	for i := 1; i < attempt; i++ {
		if delay >= max/2 {
			return max
		}
		delay *= 2
	}
	if delay > max {
		return max
	}
	return delay
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	if p.SleepFn != nil {
		return p.SleepFn(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
