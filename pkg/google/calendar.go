package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harrisonrobin/freetime/pkg/index"
	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

// SourceName tags events fetched from Google.
const SourceName = "google"

const dateLayout = "2006-01-02"

// CalendarClient is a read-only Google Calendar API client.
type CalendarClient struct {
	srv        *calendar.Service
	calendarID string

	// name and idx are set when calendarID came from the index, so a
	// deleted calendar can be resolved again.
	name string
	idx  *index.CalendarIndex
}

func NewCalendarClient(srv *calendar.Service, calendarID string) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID}
}

// FetchEvents returns every event instance overlapping [from, to).
// Recurring events are expanded by the API. A cached calendar ID that no
// longer exists is dropped from the index and resolved once more.
func (c *CalendarClient) FetchEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	out, err := c.listEvents(ctx, from, to)
	if err != nil && isNotFound(err) && c.idx != nil && c.name != "" && c.idx.Get(c.name) == c.calendarID {
		log.Warn("cached calendar id not found, resolving again", "calendar", c.name, "id", c.calendarID)
		c.idx.Remove(c.name)
		if serr := c.idx.Save(); serr != nil {
			log.Warn("could not save calendar index", "err", serr)
		}
		id, rerr := ResolveCalendarID(ctx, c.srv, c.name, c.idx)
		if rerr != nil {
			return nil, rerr
		}
		c.calendarID = id
		out, err = c.listEvents(ctx, from, to)
	}
	return out, err
}

func (c *CalendarClient) listEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	var out []model.Event
	call := c.srv.Events.List(c.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		ShowDeleted(false).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(250)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, item := range page.Items {
			out = append(out, convertEvent(item, page.TimeZone))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}
	log.Debug("fetched google events", "calendar", c.calendarID, "count", len(out))
	return out, nil
}

func isNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusNotFound
}

// convertEvent maps an API event. Unparseable times are left zero so the
// analysis reports the event as skipped instead of failing the fetch.
func convertEvent(item *calendar.Event, calendarZone string) model.Event {
	ev := model.Event{
		ID:      item.Id,
		Subject: item.Summary,
		Source:  SourceName,
		Status:  strings.ToLower(item.Status),
		ShowAs:  model.ShowAsBusy,
	}
	if item.Transparency == "transparent" {
		ev.ShowAs = model.ShowAsFree
	}

	if item.Start != nil {
		ev.Start, ev.AllDay = parseDateTime(item.Start)
		ev.TimeZone = item.Start.TimeZone
	}
	if item.End != nil {
		ev.End, _ = parseDateTime(item.End)
	}
	if ev.AllDay && ev.TimeZone == "" {
		ev.TimeZone = calendarZone
	}

	ev.ResponseStatus = responseStatus(item)
	return ev
}

func parseDateTime(d *calendar.EventDateTime) (time.Time, bool) {
	if d.DateTime != "" {
		t, err := time.Parse(time.RFC3339, d.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, false
	}
	if d.Date != "" {
		t, err := time.Parse(dateLayout, d.Date)
		if err != nil {
			return time.Time{}, true
		}
		return t, true
	}
	return time.Time{}, false
}

// responseStatus is the authenticated user's answer to the invitation.
// Events without attendees belong to the user and count as accepted.
func responseStatus(item *calendar.Event) string {
	if item.Organizer != nil && item.Organizer.Self {
		return model.ResponseOrganizer
	}
	for _, a := range item.Attendees {
		if a.Self {
			return strings.ToLower(a.ResponseStatus)
		}
	}
	return model.ResponseNone
}
