// Package schedule holds the weekday table of bookable clock times.
package schedule

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidClock = errors.New("invalid time")
)

// Table maps a weekday to its ordered candidate times.
type Table struct {
	days [7][]string
}

// New validates days and builds a Table. Sunday must be empty; every other
// weekday needs a non-empty, strictly increasing list of HH:mm values.
func New(days map[time.Weekday][]string) (*Table, error) {
	const op = "schedule.New"

	var t Table
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		times := days[wd]

		if wd == time.Sunday {
			if len(times) > 0 {
				return nil, fmt.Errorf("%s: sunday must not offer slots", op)
			}
			continue
		}
		if len(times) == 0 {
			return nil, fmt.Errorf("%s: %s has no slots", op, wd)
		}

		prev := -1
		for _, s := range times {
			h, m, err := ParseClock(s)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", op, wd, err)
			}
			minutes := h*60 + m
			if minutes <= prev {
				return nil, fmt.Errorf("%s: %s: %q is not after the previous slot", op, wd, s)
			}
			prev = minutes
		}

		t.days[wd] = append([]string(nil), times...)
	}

	return &t, nil
}

// Candidates returns a copy of the times offered on wd.
func (t *Table) Candidates(wd time.Weekday) []string {
	if wd < time.Sunday || wd > time.Saturday {
		return nil
	}
	return append([]string(nil), t.days[wd]...)
}

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// ParseClock parses a 24h HH:mm clock time. Both fields must be two digits.
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != len(ClockLayout) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	c, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return c.Hour(), c.Minute(), nil
}

// At combines a date and clock time into an instant in loc.
func At(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc), nil
}
