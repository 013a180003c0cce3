package clock

import (
	"sync"
	"time"
)

type Clocker interface {
	Now() time.Time
}

// System reads the wall clock in UTC. Stored expiries and block windows are
// compared in UTC regardless of the process time zone.
type System struct{}

func New() *System {
	return &System{}
}

func (*System) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a Clocker that only moves when told to. It is safe for
// concurrent use.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d (backwards when d is negative).
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}
