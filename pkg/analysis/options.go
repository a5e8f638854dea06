package analysis

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ConfigurationError is fatal: the run cannot start with these options.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock parses "HH:MM" (24-hour).
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return Clock(h*60 + m), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// On returns the instant this clock time falls on the calendar date of day,
// in loc. Only day's year/month/day (in its own location) are used.
func (c Clock) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, loc)
}

// ResolveLocation loads an IANA zone, reporting failures as configuration
// errors.
func ResolveLocation(name string) (*time.Location, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &ConfigurationError{Field: "timezone", Reason: "timezone is empty"}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigurationError{Field: "timezone", Reason: fmt.Sprintf("unknown timezone %q", name)}
	}
	return loc, nil
}

// Options is the complete, immutable input configuration of one run.
type Options struct {
	// Location is the reference timezone every interval is expressed in.
	Location *time.Location

	WorkStart Clock
	WorkEnd   Clock

	// From and To are inclusive calendar dates; only their year/month/day
	// in their own location are used.
	From time.Time
	To   time.Time

	// Workdays lists the weekdays included in the report. Empty means all.
	Workdays []time.Weekday

	// MinFocusSlot is the shortest free slot that counts as focus time.
	MinFocusSlot time.Duration
}

// Validate checks the options without looking at any event.
func (o Options) Validate() error {
	if o.Location == nil {
		return &ConfigurationError{Field: "timezone", Reason: "timezone is required"}
	}
	if o.WorkStart < 0 || o.WorkEnd >= 24*60 {
		return &ConfigurationError{Field: "work_hours", Reason: "work hours must lie within one day"}
	}
	if o.WorkEnd <= o.WorkStart {
		return &ConfigurationError{
			Field:  "work_hours",
			Reason: fmt.Sprintf("work end %s must be after work start %s", o.WorkEnd, o.WorkStart),
		}
	}
	if o.From.IsZero() || o.To.IsZero() {
		return &ConfigurationError{Field: "date_range", Reason: "start and end dates are required"}
	}
	if dateOnly(o.To, time.UTC).Before(dateOnly(o.From, time.UTC)) {
		return &ConfigurationError{
			Field:  "date_range",
			Reason: fmt.Sprintf("end date %s is before start date %s", o.To.Format(time.DateOnly), o.From.Format(time.DateOnly)),
		}
	}
	if o.MinFocusSlot < 0 {
		return &ConfigurationError{Field: "min_focus_slot", Reason: "must not be negative"}
	}
	return nil
}

func (o Options) isWorkday(d time.Weekday) bool {
	if len(o.Workdays) == 0 {
		return true
	}
	for _, w := range o.Workdays {
		if w == d {
			return true
		}
	}
	return false
}

// dateOnly is midnight of t's calendar date (as seen in t's location) in loc.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
