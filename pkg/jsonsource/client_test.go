package jsonsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseSingleEvent(t *testing.T) {
	input := `{
		"id": "evt-1",
		"subject": "Design review",
		"start": "2025-03-12T10:00:00",
		"end": "2025-03-12T11:30:00",
		"timezone": "Europe/Berlin",
		"response_status": "Accepted"
	}`

	events, err := ParseEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]

	if ev.ID != "evt-1" {
		t.Errorf("Expected ID evt-1, got %s", ev.ID)
	}
	if ev.Subject != "Design review" {
		t.Errorf("Expected Subject 'Design review', got '%s'", ev.Subject)
	}
	if ev.ResponseStatus != "accepted" {
		t.Errorf("Expected response status 'accepted', got '%s'", ev.ResponseStatus)
	}
	expectedStart, _ := time.Parse(time.RFC3339, "2025-03-12T09:00:00Z")
	if !ev.Start.Equal(expectedStart) {
		t.Errorf("Expected Start %v, got %v", expectedStart, ev.Start)
	}
	if ev.End.Sub(ev.Start) != 90*time.Minute {
		t.Errorf("Expected 90m duration, got %v", ev.End.Sub(ev.Start))
	}
}

func TestZonedTimesIgnoreRecordTimezone(t *testing.T) {
	input := `[
		{"id": "basic", "start": "20250312T090000Z", "end": "20250312T100000Z", "timezone": "America/New_York"},
		{"id": "offset", "start": "2025-03-12T09:00:00+01:00", "end": "2025-03-12T10:00:00+01:00", "timezone": "America/New_York"},
		{"id": "local", "start": "2025-03-12T09:00:00", "end": "2025-03-12T10:00:00", "timezone": "America/New_York"}
	]`
	events, err := ParseEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseEvents failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	want := map[string]time.Time{
		"basic":  time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC),
		"offset": time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC),
		"local":  time.Date(2025, 3, 12, 13, 0, 0, 0, time.UTC), // 09:00 EDT
	}
	for _, ev := range events {
		if !ev.Start.Equal(want[ev.ID]) {
			t.Errorf("%s: Expected start %v, got %v", ev.ID, want[ev.ID], ev.Start.UTC())
		}
		if ev.End.Sub(ev.Start) != time.Hour {
			t.Errorf("%s: Expected 1h duration, got %v", ev.ID, ev.End.Sub(ev.Start))
		}
	}
}

func TestParseEventsArrayAndStream(t *testing.T) {
	array := `[
		{"id": "a", "start": "2025-03-12T09:00:00Z", "end": "2025-03-12T10:00:00Z"},
		{"id": "b", "start": "2025-03-12", "all_day": true}
	]`
	stream := `{"id": "a", "start": "20250312T090000Z", "end": "20250312T100000Z"}
{"id": "b", "start": "2025-03-12", "all_day": true}`

	for name, input := range map[string]string{"array": array, "stream": stream} {
		events, err := ParseEvents(strings.NewReader(input))
		if err != nil {
			t.Fatalf("%s: ParseEvents failed: %v", name, err)
		}
		if len(events) != 2 {
			t.Fatalf("%s: Expected 2 events, got %d", name, len(events))
		}
		if events[0].Start.Hour() != 9 {
			t.Errorf("%s: Expected start hour 9, got %d", name, events[0].Start.Hour())
		}
		if !events[1].AllDay || events[1].Start.Day() != 12 {
			t.Errorf("%s: Expected all-day event on the 12th, got %+v", name, events[1])
		}
		if events[0].Source != SourceName {
			t.Errorf("%s: Expected source %s, got %s", name, SourceName, events[0].Source)
		}
	}
}

func TestParseEventsEmptyInput(t *testing.T) {
	events, err := ParseEvents(strings.NewReader("  \n"))
	if err != nil {
		t.Fatalf("ParseEvents failed: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("Expected no events, got %d", len(events))
	}
}

func TestParseEventsRejectsBadTime(t *testing.T) {
	_, err := ParseEvents(strings.NewReader(`[{"id": "x", "start": "tomorrow-ish"}]`))
	if err == nil {
		t.Error("Expected an error for an unparseable time")
	}
}

func TestMissingEndIsKept(t *testing.T) {
	events, err := ParseEvents(strings.NewReader(`{"id": "open", "start": "2025-03-12T09:00:00Z"}`))
	if err != nil {
		t.Fatalf("ParseEvents failed: %v", err)
	}
	if len(events) != 1 || !events[0].End.IsZero() {
		t.Errorf("Expected one event with zero end, got %+v", events)
	}
}

func TestClientFetchEventsFiltersRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")
	data := `[
		{"id": "before", "start": "2025-03-01T09:00:00Z", "end": "2025-03-01T10:00:00Z"},
		{"id": "inside", "start": "2025-03-12T09:00:00Z", "end": "2025-03-12T10:00:00Z"},
		{"id": "after", "start": "2025-04-01T09:00:00Z", "end": "2025-04-01T10:00:00Z"}
	]`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	events, err := NewClient(path).FetchEvents(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].ID != "inside" {
		t.Errorf("Expected only 'inside', got %+v", events)
	}
}

func TestClientReadsStdin(t *testing.T) {
	c := NewClient("-")
	c.stdin = strings.NewReader(`{"id": "piped", "start": "2025-03-12T09:00:00Z", "end": "2025-03-12T10:00:00Z"}`)

	from := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	events, err := c.FetchEvents(context.Background(), from, from.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("FetchEvents failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("Expected 1 event, got %d", len(events))
	}
}

func TestClientMissingFile(t *testing.T) {
	_, err := NewClient(filepath.Join(t.TempDir(), "nope.json")).FetchEvents(context.Background(), time.Now(), time.Now())
	if err == nil {
		t.Error("Expected an error for a missing file")
	}
}
