// Package retry runs operations with bounded exponential backoff.
package retry

import (
	"context"
	"math"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Policy describes how often and how patiently an operation is retried.
// The wait after the failed attempt n (zero-indexed) is Delay * Backoff^n.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	Backoff     float64
}

func NewPolicy(maxAttempts int, delay time.Duration, backoff float64) Policy {
	return Policy{MaxAttempts: maxAttempts, Delay: delay, Backoff: backoff}
}

// Wait returns the pause that follows the failed attempt n.
func (p Policy) Wait(attempt int) time.Duration {
	backoff := p.Backoff
	if backoff <= 0 {
		backoff = 1
	}
	return time.Duration(float64(p.Delay) * math.Pow(backoff, float64(attempt)))
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) schedule() goretry.Backoff {
	attempt := 0
	return goretry.BackoffFunc(func() (time.Duration, bool) {
		if attempt >= p.attempts()-1 {
			return 0, true
		}
		wait := p.Wait(attempt)
		attempt++
		return wait, false
	})
}

// Result carries the outcome of an operation started with Go.
type Result[T any] struct {
	Value T
	Err   error
}

// Do invokes op until it succeeds or the policy runs out of attempts. The
// error of the last attempt is returned as is.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		out     T
		attempt int
	)
	maxAttempts := p.attempts()

	err := goretry.Do(ctx, p.schedule(), func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			if attempt < maxAttempts-1 {
				zap.S().Named("retry").Warnw("attempt failed", "attempt", attempt+1, "max_attempts", maxAttempts, "wait", p.Wait(attempt), "error", err)
			}
			attempt++
			return goretry.RetryableError(err)
		}
		out = v
		return nil
	})
	return out, err
}

// Go runs Do on its own goroutine. The returned channel yields exactly one
// Result and is then closed.
func Go[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := Do(ctx, p, op)
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}
