// Copyright 2026 The Fabrun Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations used by polling loops.
//
// Production code stores a Clock in the struct that owns the loop and
// never calls time.Now, time.After, or time.Sleep directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}
