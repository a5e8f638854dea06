// Package ics reads iCalendar subscriptions: fetching with an on-disk
// cache, VEVENT parsing, and recurrence expansion into model events.
package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

const propRecurrenceID = ical.ComponentProperty("RECURRENCE-ID")

// ParsedEvent is one VEVENT before recurrence expansion.
type ParsedEvent struct {
	FeedID string

	UID     string
	Summary string

	Start    time.Time
	End      time.Time
	AllDay   bool
	TimeZone string

	Status         string
	ShowAs         string
	ResponseStatus string

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

// ParseOptions control how a feed is read.
type ParseOptions struct {
	// Attendee is the user's address, used to read their PARTSTAT. Empty
	// treats every event as the user's own.
	Attendee string
	// Location reads floating times, those with neither TZID nor a UTC
	// marker. Nil means UTC.
	Location *time.Location
}

// ParseICS parses a feed body. Unparseable VEVENTs are logged and skipped.
func ParseICS(feedID string, body []byte, opts ParseOptions) ([]ParsedEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse calendar: %w", err)
	}

	var events []ParsedEvent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(feedID, ve, opts)
		if err != nil {
			log.Warn("skipping vevent", "feed", feedID, "err", err)
			continue
		}
		events = append(events, ev)
	}
	log.Debug("ics parsed", "feed", feedID, "events", len(events))
	return events, nil
}

func parseVEvent(feedID string, ve *ical.VEvent, opts ParseOptions) (ParsedEvent, error) {
	out := ParsedEvent{FeedID: feedID, ShowAs: model.ShowAsBusy}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Status = strings.ToLower(strings.TrimSpace(p.Value))
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil && strings.EqualFold(strings.TrimSpace(p.Value), "TRANSPARENT") {
		out.ShowAs = model.ShowAsFree
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		tzid := param(p, "TZID")
		loc, name, ok := resolveZone(tzid, opts.Location)
		if !ok {
			log.Warn("unknown TZID, reading in the reference zone", "feed", feedID, "uid", out.UID, "tzid", tzid)
		}
		out.TimeZone = name
		out.AllDay = strings.EqualFold(param(p, "VALUE"), "DATE") || !strings.Contains(p.Value, "T")
		start, err := parseICSTime(p.Value, loc)
		if err != nil {
			return out, fmt.Errorf("DTSTART: %w", err)
		}
		out.Start = start
	}

	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		end, err := parseICSTime(p.Value, zoneFor(p, opts.Location))
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
		out.End = end
	} else if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil && !out.Start.IsZero() {
		d, err := parseDuration(p.Value)
		if err != nil {
			return out, fmt.Errorf("DURATION: %w", err)
		}
		out.End = out.Start.Add(d)
	} else if !out.AllDay && !out.Start.IsZero() {
		// A timed event without DTEND or DURATION ends when it starts.
		out.End = out.Start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := zoneFor(p, opts.Location)
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}
	if p := ve.GetProperty(propRecurrenceID); p != nil {
		if t, err := parseICSTime(p.Value, zoneFor(p, opts.Location)); err == nil {
			out.RecurrenceID = &t
		}
	}

	out.ResponseStatus = responseStatus(ve, opts.Attendee)
	return out, nil
}

// responseStatus reads the PARTSTAT of attendee. Events that do not list
// the attendee at all are treated as the user's own.
func responseStatus(ve *ical.VEvent, attendee string) string {
	if attendee == "" {
		return model.ResponseNone
	}
	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil && sameAddress(p.Value, attendee) {
		return model.ResponseOrganizer
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		if !sameAddress(p.Value, attendee) {
			continue
		}
		partstat := param(p, "PARTSTAT")
		if partstat == "" {
			return model.ResponseNeedsAction
		}
		return strings.ToLower(strings.ReplaceAll(partstat, "-", ""))
	}
	return model.ResponseNone
}

func sameAddress(value, email string) bool {
	addr := strings.TrimSpace(value)
	if len(addr) >= 7 && strings.EqualFold(addr[:7], "mailto:") {
		addr = addr[7:]
	}
	return strings.EqualFold(addr, strings.TrimSpace(email))
}

func param(p *ical.IANAProperty, name string) string {
	if p.ICalParameters == nil {
		return ""
	}
	if vs, ok := p.ICalParameters[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func zoneFor(p *ical.IANAProperty, fallback *time.Location) *time.Location {
	loc, _, _ := resolveZone(param(p, "TZID"), fallback)
	return loc
}

// parseICSTime reads DATE and DATE-TIME values. UTC values end in Z; others
// are read in loc, or UTC when loc is nil.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if loc == nil {
		loc = time.UTC
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}

// parseDuration reads RFC 5545 durations such as PT1H30M, P1D or -PT15M.
func parseDuration(v string) (time.Duration, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	sign := time.Duration(1)
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	s = s[1:]

	var total time.Duration
	inTime := false
	num := ""
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'T':
			inTime = true
		default:
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			num = ""
			unit, ok := durationUnit(r, inTime)
			if !ok {
				return 0, fmt.Errorf("invalid duration %q", v)
			}
			total += time.Duration(n) * unit
		}
	}
	if num != "" {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return sign * total, nil
}

func durationUnit(r rune, inTime bool) (time.Duration, bool) {
	if inTime {
		switch r {
		case 'H':
			return time.Hour, true
		case 'M':
			return time.Minute, true
		case 'S':
			return time.Second, true
		}
		return 0, false
	}
	switch r {
	case 'W':
		return 7 * 24 * time.Hour, true
	case 'D':
		return 24 * time.Hour, true
	}
	return 0, false
}
