package ics

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

const maxOccurrencesPerEvent = 5000

// Expand turns parsed VEVENTs into concrete events overlapping [from, to).
// RECURRENCE-ID overrides replace the instance they name; EXDATEs remove
// instances. Events without a usable start are passed through so the
// analysis can report them.
func Expand(events []ParsedEvent, from, to time.Time) []model.Event {
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	var out []model.Event
	for _, ev := range events {
		switch {
		case ev.RecurrenceID != nil:
			if overlaps(ev, ev.Start, from, to) {
				out = append(out, toModel(ev, ev.Start, ev.End, ev.RecurrenceID.Format(time.RFC3339)))
			}
		case ev.Start.IsZero():
			out = append(out, toModel(ev, ev.Start, ev.End, ""))
		case ev.RRule == "":
			if overlaps(ev, ev.Start, from, to) {
				out = append(out, toModel(ev, ev.Start, ev.End, ""))
			}
		default:
			out = append(out, expandRecurring(ev, overrides[ev.UID], from, to)...)
		}
	}
	return out
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, from, to time.Time) []model.Event {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		log.Warn("invalid RRULE, using first instance only", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		if overlaps(ev, ev.Start, from, to) {
			return []model.Event{toModel(ev, ev.Start, ev.End, "")}
		}
		return nil
	}
	r.DTStart(ev.Start)

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Instances starting before from can still run into the range.
	loc := ev.Start.Location()
	span := instanceSpan(ev)
	starts := set.Between(from.Add(-span).In(loc), to.In(loc), true)
	if len(starts) > maxOccurrencesPerEvent {
		log.Warn("truncating recurrence", "uid", ev.UID, "instances", len(starts), "cap", maxOccurrencesPerEvent)
		starts = starts[:maxOccurrencesPerEvent]
	}

	var out []model.Event
	for _, start := range starts {
		if overridden(overrides, start) {
			continue
		}
		end := start.Add(ev.End.Sub(ev.Start))
		if ev.End.IsZero() {
			end = time.Time{}
		}
		if !overlaps(ev, start, from, to) {
			continue
		}
		out = append(out, toModel(ev, start, end, start.Format(time.RFC3339)))
	}
	return out
}

func instanceSpan(ev ParsedEvent) time.Duration {
	if ev.End.After(ev.Start) {
		return ev.End.Sub(ev.Start)
	}
	if ev.AllDay {
		return 24 * time.Hour
	}
	return 0
}

func overridden(overrides []ParsedEvent, start time.Time) bool {
	for _, ov := range overrides {
		if ov.RecurrenceID.Equal(start) {
			return true
		}
	}
	return false
}

// overlaps tests a single instance against [from, to). All-day instances
// without an end cover one day.
func overlaps(ev ParsedEvent, start, from, to time.Time) bool {
	end := start.Add(instanceSpan(ev))
	if end.Equal(start) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}

func toModel(ev ParsedEvent, start, end time.Time, instance string) model.Event {
	id := ev.UID
	if instance != "" {
		id = fmt.Sprintf("%s@%s", ev.UID, instance)
	}
	return model.Event{
		ID:             id,
		Subject:        ev.Summary,
		Source:         "ics:" + ev.FeedID,
		Start:          start,
		End:            end,
		AllDay:         ev.AllDay,
		TimeZone:       ev.TimeZone,
		Status:         ev.Status,
		ResponseStatus: ev.ResponseStatus,
		ShowAs:         ev.ShowAs,
	}
}
