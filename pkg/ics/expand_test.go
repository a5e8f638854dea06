package ics

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	parsed, err := ParseICS("work", feedBody(sampleFeed), ParseOptions{Attendee: "me@example.com", Location: berlin})
	require.NoError(t, err)

	from := time.Date(2025, 3, 10, 0, 0, 0, 0, berlin)
	to := time.Date(2025, 3, 15, 0, 0, 0, 0, berlin)
	events := Expand(parsed, from, to)

	var standups []time.Time
	for _, ev := range events {
		assert.Equal(t, "ics:work", ev.Source)
		if len(ev.ID) > len("standup") && ev.ID[:len("standup")] == "standup" {
			standups = append(standups, ev.Start)
		}
	}
	sort.Slice(standups, func(i, j int) bool { return standups[i].Before(standups[j]) })

	// Wednesday is excluded, Thursday is moved to 11:00.
	require.Len(t, standups, 4)
	assert.Equal(t, 10, standups[0].Day())
	assert.Equal(t, 11, standups[1].Day())
	assert.Equal(t, 13, standups[2].Day())
	assert.Equal(t, 11, standups[2].In(berlin).Hour())
	assert.Equal(t, 14, standups[3].Day())

	assert.Len(t, events, 7)
}

func TestExpandKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	start := time.Date(2025, 3, 7, 9, 0, 0, 0, ny)
	ev := ParsedEvent{UID: "daily", Start: start, End: start.Add(time.Hour), RRule: "FREQ=DAILY;COUNT=5"}

	events := Expand([]ParsedEvent{ev}, start, start.AddDate(0, 0, 5))
	require.Len(t, events, 5)
	for _, e := range events {
		assert.Equal(t, 9, e.Start.In(ny).Hour(), e.ID)
		assert.Equal(t, time.Hour, e.End.Sub(e.Start))
	}
}

func TestExpandIncludesInstanceRunningIntoRange(t *testing.T) {
	start := time.Date(2025, 3, 9, 22, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "night", Start: start, End: start.Add(4 * time.Hour), RRule: "FREQ=WEEKLY;COUNT=2"}

	events := Expand([]ParsedEvent{ev}, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	require.Len(t, events, 1)
	assert.True(t, events[0].Start.Equal(start))
}

func TestExpandPassesThroughBrokenEvents(t *testing.T) {
	events := Expand([]ParsedEvent{{UID: "nostart"}}, time.Now(), time.Now().Add(time.Hour))
	require.Len(t, events, 1)
	assert.True(t, events[0].Start.IsZero())
}

func TestExpandInvalidRRuleFallsBackToFirstInstance(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "bad", Start: start, End: start.Add(time.Hour), RRule: "FREQ=SOMETIMES"}
	events := Expand([]ParsedEvent{ev}, start.Add(-time.Hour), start.Add(24*time.Hour))
	require.Len(t, events, 1)
	assert.Equal(t, "bad", events[0].ID)
}
