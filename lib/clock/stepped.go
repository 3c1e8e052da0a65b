// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sync"
	"time"
)

// Stepped returns a SteppedClock initialized to the given time.
func Stepped(initial time.Time) *SteppedClock {
	return &SteppedClock{current: initial}
}

// SteppedClock is a Clock whose Sleep advances simulated time by the
// requested duration and returns immediately. After behaves the same
// way: the clock jumps forward and the returned channel is already
// loaded.
//
// A polling loop driven by a SteppedClock runs to completion without
// any wall-clock waiting, and Now reports exactly how much simulated
// time the loop consumed.
type SteppedClock struct {
	mu      sync.Mutex
	current time.Time
	sleeps  []time.Duration
}

// Now returns the current simulated time.
func (c *SteppedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After advances the clock by d (when positive) and returns a channel
// that already holds the new time.
func (c *SteppedClock) After(d time.Duration) <-chan time.Time {
	channel := make(chan time.Time, 1)
	c.Sleep(d)
	channel <- c.Now()
	return channel
}

// Sleep advances the clock by d. Non-positive durations are recorded
// but do not move time.
func (c *SteppedClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	if d > 0 {
		c.current = c.current.Add(d)
	}
}

// Advance moves the clock forward by d without recording a sleep. Tests
// use it to simulate time spent outside the code under test.
func (c *SteppedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep or After, in
// call order.
func (c *SteppedClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	result := make([]time.Duration, len(c.sleeps))
	copy(result, c.sleeps)
	return result
}
