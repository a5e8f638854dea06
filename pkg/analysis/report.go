package analysis

import "time"

// DayReport is the analysis of a single work window.
type DayReport struct {
	Date   time.Time  `json:"date"`
	Window Interval   `json:"window"`
	Busy   []Interval `json:"busy"`
	Free   []Interval `json:"free"`

	WorkDuration time.Duration `json:"work_duration"`
	BusyDuration time.Duration `json:"busy_duration"`
	FreeDuration time.Duration `json:"free_duration"`
}

// Report aggregates a whole date range.
type Report struct {
	TimeZone  string    `json:"timezone"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	WorkStart string    `json:"work_start"`
	WorkEnd   string    `json:"work_end"`

	Days []DayReport `json:"days"`

	WorkDuration      time.Duration `json:"work_duration"`
	BusyDuration      time.Duration `json:"busy_duration"`
	FreeDuration      time.Duration `json:"free_duration"`
	ProductivityRatio float64       `json:"productivity_ratio"`

	// Focus statistics: free slots of at least MinFocusSlot. The effective
	// duration charges MinFocusSlot of ramp-up against every focus slot.
	MinFocusSlot           time.Duration `json:"min_focus_slot"`
	FocusSlots             int           `json:"focus_slots"`
	FocusDuration          time.Duration `json:"focus_duration"`
	EffectiveFocusDuration time.Duration `json:"effective_focus_duration"`
	EffectiveFocusRatio    float64       `json:"effective_focus_ratio"`

	Skipped []SkippedEvent `json:"skipped,omitempty"`
}

// NewDay analyzes one window against the globally merged busy intervals.
// Busy is derived from work and free so the two always reconcile.
func NewDay(window Interval, busy []Interval) DayReport {
	free := FreeSlots(window, busy)
	work := window.Duration()
	freeDur := TotalDuration(free)
	return DayReport{
		Date:         dateOnly(window.Start, window.Start.Location()),
		Window:       window,
		Busy:         ClipBusy(window, busy),
		Free:         free,
		WorkDuration: work,
		FreeDuration: freeDur,
		BusyDuration: work - freeDur,
	}
}

// Aggregate folds per-day results, in the given order, into a report.
// Days outside opts.Workdays are left out.
func Aggregate(days []DayReport, opts Options) Report {
	r := Report{
		From:         dateOnly(opts.From, time.UTC),
		To:           dateOnly(opts.To, time.UTC),
		WorkStart:    opts.WorkStart.String(),
		WorkEnd:      opts.WorkEnd.String(),
		Days:         make([]DayReport, 0, len(days)),
		MinFocusSlot: opts.MinFocusSlot,
	}
	if opts.Location != nil {
		r.TimeZone = opts.Location.String()
	}

	for _, d := range days {
		if !opts.isWorkday(d.Date.Weekday()) {
			continue
		}
		r.Days = append(r.Days, d)
		r.WorkDuration += d.WorkDuration
		r.FreeDuration += d.FreeDuration

		for _, slot := range d.Free {
			if slot.Duration() < opts.MinFocusSlot {
				continue
			}
			r.FocusSlots++
			r.FocusDuration += slot.Duration()
			r.EffectiveFocusDuration += slot.Duration() - opts.MinFocusSlot
		}
	}
	r.BusyDuration = r.WorkDuration - r.FreeDuration

	if r.WorkDuration > 0 {
		r.ProductivityRatio = float64(r.FreeDuration) / float64(r.WorkDuration)
		r.EffectiveFocusRatio = float64(r.EffectiveFocusDuration) / float64(r.WorkDuration)
	}
	return r
}
