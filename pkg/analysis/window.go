package analysis

import (
	"fmt"
	"time"
)

// Dates lists the calendar dates from..to inclusive as midnights in loc.
func Dates(from, to time.Time, loc *time.Location) []time.Time {
	first := dateOnly(from, loc)
	last := dateOnly(to, loc)
	var out []time.Time
	// Stepping by calendar day through time.Date keeps DST days correct.
	for i := 0; ; i++ {
		d := time.Date(first.Year(), first.Month(), first.Day()+i, 0, 0, 0, 0, loc)
		if dateOnly(d, time.UTC).After(dateOnly(last, time.UTC)) {
			break
		}
		out = append(out, d)
	}
	return out
}

// WorkWindows returns one work window per calendar day in the options' date
// range, in the reference zone. Every day is returned, weekends included.
//
// A window that comes out empty after zone normalization (a DST jump over
// the whole window) is a configuration error for the whole run.
func WorkWindows(opts Options) ([]Interval, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	days := Dates(opts.From, opts.To, opts.Location)
	windows := make([]Interval, 0, len(days))
	for _, day := range days {
		w := Interval{
			Start: opts.WorkStart.On(day, opts.Location),
			End:   opts.WorkEnd.On(day, opts.Location),
		}
		if w.Empty() {
			return nil, &ConfigurationError{
				Field:  "work_hours",
				Reason: fmt.Sprintf("window %s-%s is empty on %s", opts.WorkStart, opts.WorkEnd, day.Format(time.DateOnly)),
			}
		}
		windows = append(windows, w)
	}
	return windows, nil
}
