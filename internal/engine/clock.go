// apps/go-server/internal/engine/clock.go
//
// Clock abstraction for the countdown timer. The engine recomputes remaining
// time from elapsed wall-clock time rather than decrementing per tick, so all
// time reads go through a Clock that tests can substitute.

package engine

import (
	"sync"
	"time"
)

// Clock supplies the current time to the engine.
type Clock interface {
	Now() time.Time
}

// systemClock is the default Clock backed by time.Now (monotonic reading).
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MockClock is a manually advanced Clock for tests.
type MockClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewMockClock creates a MockClock starting at the given time.
func NewMockClock(start time.Time) *MockClock {
	return &MockClock{now: start}
}

// Now returns the current mocked time.
func (m *MockClock) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now
}

// Advance moves the mocked time forward by d.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}
