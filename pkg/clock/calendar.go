// Package clock supplies wall time and working-hours arithmetic for SLA deadlines.
package clock

import (
	"slices"
	"time"
)

// Calendar describes when staff are working.
type Calendar struct {
	Location *time.Location
	// DayStart and DayEnd are offsets from midnight.
	DayStart time.Duration
	DayEnd   time.Duration
	Weekdays []time.Weekday
	// Holidays are compared by calendar date in Location.
	Holidays []time.Time
}

// DefaultCalendar is Monday to Friday, 09:00 to 17:00 UTC.
func DefaultCalendar() Calendar {
	return Calendar{
		Location: time.UTC,
		DayStart: 9 * time.Hour,
		DayEnd:   17 * time.Hour,
		Weekdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
	}
}

// AddWorkingHours returns the instant that lies the given number of working
// hours after from. Non-positive hours return from unchanged.
func (c Calendar) AddWorkingHours(from time.Time, hours float64) time.Time {
	if hours <= 0 {
		return from
	}

	remaining := time.Duration(hours * float64(time.Hour))

	if len(c.Weekdays) == 0 || c.DayEnd <= c.DayStart {
		return from.Add(remaining)
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}

	t := from.In(loc)

	// A year of skipped days means the calendar has no working time at all.
	for range 366 * 2 {
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		next := midnight.AddDate(0, 0, 1)

		if !c.isWorkingDay(midnight) {
			t = next

			continue
		}

		start := midnight.Add(c.DayStart)
		end := midnight.Add(c.DayEnd)

		if t.Before(start) {
			t = start
		}

		if !t.Before(end) {
			t = next

			continue
		}

		available := end.Sub(t)
		if remaining <= available {
			return t.Add(remaining)
		}

		remaining -= available
		t = next
	}

	return from.Add(time.Duration(hours * float64(time.Hour)))
}

func (c Calendar) isWorkingDay(day time.Time) bool {
	if !slices.Contains(c.Weekdays, day.Weekday()) {
		return false
	}

	y, m, d := day.Date()

	for _, h := range c.Holidays {
		hy, hm, hd := h.In(day.Location()).Date()
		if hy == y && hm == m && hd == d {
			return false
		}
	}

	return true
}
