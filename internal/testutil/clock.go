package testutil

import (
	"sync"
	"time"
)

// Clock yields deterministic, strictly increasing timestamps for tests.
//
// Each Now call returns the current instant and advances the clock by a
// fixed step, so code stamping several events gets distinct, ordered
// times and the same test produces identical timestamps on every run.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu    sync.Mutex
	start time.Time
	now   time.Time
	step  time.Duration
}

// NewClock creates a clock reporting start first, advancing by step per
// Now call.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{start: start, now: start, step: step}
}

// Now returns the clock's current instant and advances it.
// Intended as a runner.WithNow replacement for time.Now.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next Now call will report, without
// advancing.
func (c *Clock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Reset rewinds the clock to its start instant for test reuse. After
// Reset, the next Now call reports the original start again.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.start
}
