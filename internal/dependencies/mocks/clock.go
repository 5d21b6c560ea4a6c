package mocks

import (
	"time"

	"github.com/mcoot/auctionroom-go/internal/dependencies/clock"
)

// ScheduledFunc is a function registered via AfterFunc with its delay
type ScheduledFunc struct {
	Delay time.Duration
	Fn    func()
}

// MockClock is a mock implementation of Clock for testing.
// AfterFunc callbacks are captured rather than run, so tests can fire
// timers deterministically with FireTimers.
type MockClock struct {
	CurrentTime time.Time
	Scheduled   []ScheduledFunc
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	return c.CurrentTime
}

// AfterFunc records the callback without running it
func (c *MockClock) AfterFunc(d time.Duration, fn func()) {
	c.Scheduled = append(c.Scheduled, ScheduledFunc{Delay: d, Fn: fn})
}

// FireTimers runs and clears all captured AfterFunc callbacks, in order
func (c *MockClock) FireTimers() {
	scheduled := c.Scheduled
	c.Scheduled = nil
	for _, s := range scheduled {
		s.Fn()
	}
}

// Advance moves the clock forward by the given duration
func (c *MockClock) Advance(d time.Duration) {
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set sets the clock to the given time
func (c *MockClock) Set(t time.Time) {
	c.CurrentTime = t
}
