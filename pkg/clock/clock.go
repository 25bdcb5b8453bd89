package clock

import (
	"sync"
	"time"
)

// System reads the wall clock and applies its calendar to SLA arithmetic.
type System struct {
	Calendar Calendar
}

func NewSystem(calendar Calendar) *System {
	return &System{Calendar: calendar}
}

func (s *System) Now() time.Time {
	return time.Now().UTC()
}

func (s *System) AddWorkingHours(hours float64) time.Time {
	return s.Calendar.AddWorkingHours(s.Now(), hours)
}

// Manual is a clock that only moves when told to.
type Manual struct {
	mu       sync.Mutex
	now      time.Time
	Calendar Calendar
}

func NewManual(now time.Time, calendar Calendar) *Manual {
	return &Manual{now: now, Calendar: calendar}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.now
}

func (m *Manual) AddWorkingHours(hours float64) time.Time {
	return m.Calendar.AddWorkingHours(m.Now(), hours)
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = m.now.Add(d)
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.now = t
}
