// Package retry provides a small bounded-backoff helper used for
// transient failures against the database and the reasoning backend.
package retry

import (
	"context"
	"math/rand"
	"time"
)

// Policy controls how many times an operation is attempted and how long
// to wait between attempts. Sleep and Rand are injectable for tests.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64 // fraction of the delay added as random noise, 0..1

	Sleep func(ctx context.Context, d time.Duration) error
	Rand  func() float64
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Jitter:      0.2,
	}
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		r := rand.Float64
		if p.Rand != nil {
			r = p.Rand
		}
		d += time.Duration(float64(d) * p.Jitter * r())
	}
	return d
}

// Do runs fn up to MaxAttempts times, sleeping between attempts with
// exponential backoff. Only errors for which retriable returns true are
// retried; the last error is returned once attempts are exhausted.
func (p Policy) Do(ctx context.Context, retriable func(error) bool, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if sleepErr := p.sleep(ctx, p.delay(attempt-1)); sleepErr != nil {
				return err
			}
		}
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if retriable != nil && !retriable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
	}
	return err
}
