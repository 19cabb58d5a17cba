package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	calls := 0
	err := p.Do(context.Background(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesTransientThenSucceeds(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts: 4,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	transient := errors.New("transient")
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return errors.Is(err, transient) }, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return transient
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, slept)
}

func TestDoStopsOnNonRetriable(t *testing.T) {
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	fatal := errors.New("fatal")
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return false }, func(ctx context.Context) error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
	}

	transient := errors.New("still failing")
	calls := 0
	err := p.Do(context.Background(), func(err error) bool { return true }, func(ctx context.Context) error {
		calls++
		return transient
	})

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Millisecond,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return ctx.Err()
		},
	}

	transient := errors.New("transient")
	calls := 0
	err := p.Do(ctx, func(err error) bool { return true }, func(ctx context.Context) error {
		calls++
		cancel()
		return transient
	})

	assert.ErrorIs(t, err, transient)
	assert.Equal(t, 1, calls)
}

func TestDelayCapsAtMaxDelay(t *testing.T) {
	p := Policy{
		MaxAttempts: 10,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    300 * time.Millisecond,
	}
	assert.Equal(t, 100*time.Millisecond, p.delay(0))
	assert.Equal(t, 200*time.Millisecond, p.delay(1))
	assert.Equal(t, 300*time.Millisecond, p.delay(2))
	assert.Equal(t, 300*time.Millisecond, p.delay(5))
}
