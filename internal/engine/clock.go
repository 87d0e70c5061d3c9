package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies the timestamps written into snapshots, history entries and
// records (statusUpdatedAt, createdAt). Values must be monotonically
// non-decreasing across calls.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock and never goes backwards: if the wall
// clock steps back, the last returned instant is repeated until it catches
// up.
//
// Thread-safety: SystemClock is safe for concurrent use (atomic operations).
type SystemClock struct {
	last atomic.Int64 // unix nanoseconds
}

// NewSystemClock creates a wall clock.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time, clamped to be no earlier than any
// previously returned value.
func (c *SystemClock) Now() time.Time {
	now := time.Now().UnixNano()
	for {
		last := c.last.Load()
		if now < last {
			now = last
		}
		if c.last.CompareAndSwap(last, now) {
			return time.Unix(0, now).UTC()
		}
	}
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}
