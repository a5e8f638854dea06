package google

import (
	"context"
	"fmt"

	"google.golang.org/api/calendar/v3"

	"github.com/harrisonrobin/freetime/pkg/auth"
	"github.com/harrisonrobin/freetime/pkg/index"
	"github.com/harrisonrobin/freetime/pkg/log"
)

// PrimaryCalendar is Google's alias for the authenticated user's calendar.
const PrimaryCalendar = "primary"

// NewClient authenticates and resolves calendarName to a calendar ID. Known
// names are served from idx; unknown ones are looked up in the calendar list
// and remembered.
func NewClient(ctx context.Context, calendarName string, idx *index.CalendarIndex) (*CalendarClient, error) {
	srv, err := auth.GetCalendarService(ctx)
	if err != nil {
		return nil, err
	}

	calendarID, err := ResolveCalendarID(ctx, srv, calendarName, idx)
	if err != nil {
		return nil, err
	}
	client := NewCalendarClient(srv, calendarID)
	if calendarID != PrimaryCalendar {
		client.name, client.idx = calendarName, idx
	}
	return client, nil
}

// ResolveCalendarID maps a calendar summary (or ID) to its ID.
func ResolveCalendarID(ctx context.Context, srv *calendar.Service, calendarName string, idx *index.CalendarIndex) (string, error) {
	if calendarName == "" || calendarName == PrimaryCalendar {
		return PrimaryCalendar, nil
	}
	if idx != nil {
		if id := idx.Get(calendarName); id != "" {
			return id, nil
		}
	}

	var calendarID string
	err := srv.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, item := range page.Items {
			if item.Summary == calendarName || item.Id == calendarName {
				calendarID = item.Id
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	if calendarID == "" {
		return "", fmt.Errorf("calendar '%s' not found", calendarName)
	}

	if idx != nil {
		idx.Set(calendarName, calendarID)
		if err := idx.Save(); err != nil {
			log.Warn("could not save calendar index", "err", err)
		}
	}
	return calendarID, nil
}
