package testing

import (
	"sync"
	"time"
)

// ManualClock provides a controllable clock for testing time-dependent behavior
// such as offer expiry.
type ManualClock struct {
	mu      sync.RWMutex
	current time.Time
}

// NewManualClock creates a new ManualClock set to 2024-01-01 00:00:00 UTC.
func NewManualClock() *ManualClock {
	return NewManualClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func NewManualClockAt(t time.Time) *ManualClock {
	return &ManualClock{current: t}
}

func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Unix returns the clock in the unix seconds offers are stamped with.
func (c *ManualClock) Unix() int64 {
	return c.Now().Unix()
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}
