package model

import (
	"context"
	"time"
)

// Response statuses as reported by providers, normalized to lower case.
const (
	ResponseAccepted    = "accepted"
	ResponseTentative   = "tentative"
	ResponseDeclined    = "declined"
	ResponseNeedsAction = "needsaction"
	ResponseOrganizer   = "organizer"
	ResponseNone        = ""
)

// ShowAs values. An event shown as free never blocks time.
const (
	ShowAsBusy = "busy"
	ShowAsFree = "free"
)

const StatusCancelled = "cancelled"

// Event is a raw calendar event as delivered by any provider.
//
// A zero Start or End means the provider did not supply it. For all-day events
// only the calendar date of Start (and of End, if present, as an exclusive end
// date) is meaningful.
type Event struct {
	ID      string
	Subject string
	Source  string // "google", "ics:<id>", "json"

	Start  time.Time
	End    time.Time
	AllDay bool
	// TimeZone is the IANA zone the event was created in. Empty means the
	// location carried by Start/End.
	TimeZone string

	Status         string
	ResponseStatus string
	ShowAs         string
}

// Source delivers already-authenticated, fully materialized events for a
// time range.
type Source interface {
	FetchEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}
