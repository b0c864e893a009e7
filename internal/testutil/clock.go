package testutil

import (
	"sync"
	"time"
)

// DefaultNow is the instant a FixedClock reads when none is given:
// 2024-03-15 09:00 in Singapore.
var DefaultNow = time.Date(2024, time.March, 15, 1, 0, 0, 0, time.UTC)

// FixedClock is a settable wall clock for date validation in tests and
// scenarios. It only moves when told to.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock reading now. A zero time reads DefaultNow.
func NewFixedClock(now time.Time) *FixedClock {
	if now.IsZero() {
		now = DefaultNow
	}
	return &FixedClock{now: now}
}

// Now returns the current reading. Its signature matches
// validate.WithClock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
