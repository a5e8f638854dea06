package jsonsource

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrisonrobin/freetime/pkg/model"
)

// Accepted time layouts, tried in order. Zoned layouts name an instant;
// the rest are read in the record's timezone, or UTC if it has none.
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"20060102T150405Z", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02 15:04", false},
	{"2006-01-02", false},
}

// FlexTime decodes the timestamp formats calendar exports commonly use.
type FlexTime struct {
	time.Time
	raw   string
	zoned bool
}

func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" || s == "0" {
		*ft = FlexTime{}
		return nil
	}
	for _, l := range timeLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			*ft = FlexTime{Time: t, raw: s, zoned: l.zoned}
			return nil
		}
	}
	return fmt.Errorf("failed to parse time string '%s'", s)
}

func (ft FlexTime) MarshalJSON() ([]byte, error) {
	if ft.raw != "" {
		return []byte(`"` + ft.raw + `"`), nil
	}
	if ft.Time.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + ft.Time.Format(time.RFC3339) + `"`), nil
}

// In resolves the decoded value. Values carrying an offset or a trailing Z
// are returned as decoded; offset-less ones are read in loc.
func (ft FlexTime) In(loc *time.Location) time.Time {
	if ft.raw == "" || ft.zoned {
		return ft.Time
	}
	for _, l := range timeLayouts {
		if l.zoned {
			continue
		}
		if t, err := time.ParseInLocation(l.layout, ft.raw, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Record is one event in the JSON interchange format.
type Record struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Start          *FlexTime `json:"start,omitempty"`
	End            *FlexTime `json:"end,omitempty"`
	AllDay         bool      `json:"all_day,omitempty"`
	TimeZone       string    `json:"timezone,omitempty"`
	Status         string    `json:"status,omitempty"`
	ResponseStatus string    `json:"response_status,omitempty"`
	ShowAs         string    `json:"show_as,omitempty"`
}

// Event converts the record. An unknown timezone is kept on the event so
// the analysis reports it; times are then read in UTC.
func (r Record) Event() model.Event {
	loc := time.UTC
	if r.TimeZone != "" {
		if l, err := time.LoadLocation(r.TimeZone); err == nil {
			loc = l
		}
	}
	ev := model.Event{
		ID:             r.ID,
		Subject:        r.Subject,
		Source:         SourceName,
		AllDay:         r.AllDay,
		TimeZone:       r.TimeZone,
		Status:         strings.ToLower(r.Status),
		ResponseStatus: strings.ToLower(r.ResponseStatus),
		ShowAs:         strings.ToLower(r.ShowAs),
	}
	if r.Start != nil {
		ev.Start = r.Start.In(loc)
	}
	if r.End != nil {
		ev.End = r.End.In(loc)
	}
	return ev
}
