package analysis

import (
	"time"

	"github.com/harrisonrobin/freetime/pkg/model"
)

// SkipReason says why an event could not become a busy interval.
type SkipReason string

const (
	ReasonMissingStart   SkipReason = "missing start"
	ReasonMissingEnd     SkipReason = "missing end"
	ReasonEndBeforeStart SkipReason = "end before start"
	ReasonUnknownZone    SkipReason = "unknown timezone"
)

// SkippedEvent is a non-fatal diagnostic for one dropped event.
type SkippedEvent struct {
	EventID string     `json:"event_id"`
	Subject string     `json:"subject"`
	Source  string     `json:"source,omitempty"`
	Reason  SkipReason `json:"reason"`
}

// Normalize converts raw events into intervals in loc. Bad events are dropped
// and returned as skipped; a single bad record never fails the run.
//
// Multi-day events stay whole; the per-day windows split them later.
func Normalize(events []model.Event, loc *time.Location) ([]Interval, []SkippedEvent) {
	out := make([]Interval, 0, len(events))
	var skipped []SkippedEvent
	zones := make(map[string]*time.Location)

	for _, ev := range events {
		iv, reason := normalizeEvent(ev, loc, zones)
		if reason != "" {
			skipped = append(skipped, SkippedEvent{
				EventID: ev.ID,
				Subject: ev.Subject,
				Source:  ev.Source,
				Reason:  reason,
			})
			continue
		}
		out = append(out, iv)
	}
	return out, skipped
}

func normalizeEvent(ev model.Event, loc *time.Location, zones map[string]*time.Location) (Interval, SkipReason) {
	if ev.Start.IsZero() {
		return Interval{}, ReasonMissingStart
	}

	evLoc := ev.Start.Location()
	if ev.TimeZone != "" {
		l, ok := zones[ev.TimeZone]
		if !ok {
			// nil on failure, cached so a bad zone is looked up once.
			l, _ = time.LoadLocation(ev.TimeZone)
			zones[ev.TimeZone] = l
		}
		if l == nil {
			return Interval{}, ReasonUnknownZone
		}
		evLoc = l
	}

	if ev.AllDay {
		// The calendar date is read as carried by Start itself; the day
		// boundaries are the event zone's midnights.
		start := dateOnly(ev.Start, evLoc)
		end := start.AddDate(0, 0, 1)
		if !ev.End.IsZero() {
			explicit := dateOnly(ev.End, evLoc)
			if explicit.Before(start) {
				return Interval{}, ReasonEndBeforeStart
			}
			if explicit.After(end) {
				end = explicit
			}
		}
		return Interval{Start: start.In(loc), End: end.In(loc)}, ""
	}

	if ev.End.IsZero() {
		return Interval{}, ReasonMissingEnd
	}
	if ev.End.Before(ev.Start) {
		return Interval{}, ReasonEndBeforeStart
	}
	return Interval{Start: ev.Start.In(loc), End: ev.End.In(loc)}, ""
}
