package testutil

import (
	"sync"
	"time"
)

// Epoch is the wall time a DeterministicClock starts from.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DeterministicClock is a thread-safe logical clock for tests.
//
// Every call to Next or Now advances the clock by one tick. Now maps the
// tick to Epoch plus that many seconds, so recorded runs get reproducible
// timestamps and durations.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a new deterministic clock starting at 0.
//
// The first call to Next() returns 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next increments and returns the next tick.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Now advances the clock and returns the tick as a wall time.
// It has the signature of time.Now so it can be injected as a clock.
func (c *DeterministicClock) Now() time.Time {
	return Epoch.Add(time.Duration(c.Next()) * time.Second)
}

// Current returns the current tick without incrementing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset resets the clock to 0.
//
// After Reset(), the next call to Next() returns 1.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
