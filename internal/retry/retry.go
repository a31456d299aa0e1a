// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry provides a small retry policy for fallible operations.
package retry

import (
	"context"
	"time"
)

// Policy bounds retries of an operation: a fixed attempt count and a
// delay schedule between attempts.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// Delay returns the wait before the next attempt, given the 1-based
	// number of the attempt that just failed. A nil Delay retries
	// immediately.
	Delay func(attempt int) time.Duration
}

// Linear returns a delay schedule of step, 2*step, 3*step, ...
func Linear(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Do runs op until it succeeds or the attempt bound is exhausted, sleeping
// per the delay schedule between attempts. op receives the 1-based attempt
// number. If the context is cancelled during a backoff wait, Do returns
// ctx.Err(); otherwise it returns the error from the last attempt.
func (p Policy) Do(ctx context.Context, op func(attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = op(attempt); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		var wait time.Duration
		if p.Delay != nil {
			wait = p.Delay(attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
