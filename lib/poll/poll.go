// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

// Package poll implements the fixed-interval, fixed-deadline wait loop
// that every synchronization point in fabrun is built on.
//
// A wait is a small state machine: evaluate the condition, and if it is
// not yet satisfied either sleep one interval or, when the deadline has
// passed, fail with a *TimeoutError. There is no backoff and no retry
// beyond the interval. The last sleep is shortened so it never crosses
// the deadline, which bounds the total wait to Timeout plus the time one
// condition evaluation takes.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/fabrun/fabrun/lib/clock"
)

// Policy is the timing of one wait.
type Policy struct {
	// Interval is the fixed delay between condition evaluations. Must
	// be positive.
	Interval time.Duration

	// Timeout bounds the whole wait, measured from the first
	// evaluation. A zero Timeout evaluates the condition exactly once.
	Timeout time.Duration
}

// Validate reports a Policy that cannot drive a wait.
func (p Policy) Validate() error {
	if p.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", p.Interval)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("poll timeout must not be negative, got %v", p.Timeout)
	}
	return nil
}

// Condition reports whether the awaited state has been reached. A
// non-nil error aborts the wait immediately and is returned unchanged:
// use it for failures that retrying cannot fix (a missing executable, a
// malformed path).
type Condition func(ctx context.Context) (bool, error)

// TimeoutError is returned when the condition never held within the
// policy's timeout.
type TimeoutError struct {
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("condition not met after %v (timeout %v, %d attempts)",
		e.Elapsed, e.Timeout, e.Attempts)
}

// Until evaluates condition immediately and then once per interval
// until it returns true, returns an error, the timeout elapses, or ctx
// is cancelled.
func Until(ctx context.Context, clk clock.Clock, policy Policy, condition Condition) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	start := clk.Now()
	deadline := start.Add(policy.Timeout)
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempts++
		done, err := condition(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		now := clk.Now()
		remaining := deadline.Sub(now)
		if remaining <= 0 {
			return &TimeoutError{
				Timeout:  policy.Timeout,
				Elapsed:  now.Sub(start),
				Attempts: attempts,
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(min(policy.Interval, remaining)):
		}
	}
}
