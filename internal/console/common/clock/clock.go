package clock

import (
	"sync"
	"time"
)

// Clock abstracts wall-clock access so time-driven code can be tested
// deterministically. After mirrors time.After.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type RealClock struct{}

func (c RealClock) Now() time.Time {
	return time.Now()
}

func (c RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// MockClock is a manually advanced clock for tests. Timers created via
// After fire when Advance moves the current time past their deadline.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	timers      []mockTimer
}

type mockTimer struct {
	deadline time.Time
	ch       chan time.Time
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

func (c *MockClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.timers = append(c.timers, mockTimer{deadline: c.CurrentTime.Add(d), ch: ch})
	return ch
}

// PendingTimers reports how many timers are armed and waiting. Tests use
// it to synchronize with code that waits via After.
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Advance moves the mock time forward and fires every pending timer whose
// deadline has been reached.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
	remaining := c.timers[:0]
	for _, t := range c.timers {
		if !t.deadline.After(c.CurrentTime) {
			t.ch <- c.CurrentTime
		} else {
			remaining = append(remaining, t)
		}
	}
	c.timers = remaining
}
