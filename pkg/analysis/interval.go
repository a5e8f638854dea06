// Package analysis turns calendar events into free-time statistics for a
// configured work-hours window.
//
// Everything here is a pure transformation over values: no I/O, no globals.
// A run is Normalize -> Merge -> WorkWindows -> (per day) ClipBusy/FreeSlots
// -> Aggregate, all driven by Analyze.
package analysis

import (
	"fmt"
	"slices"
	"time"
)

// Interval is the half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Empty reports whether the interval covers no time.
func (iv Interval) Empty() bool {
	return !iv.Start.Before(iv.End)
}

// Less orders by start, then end.
func (iv Interval) Less(other Interval) bool {
	return compare(iv, other) < 0
}

// Overlaps reports whether the two intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return !other.Start.Before(iv.Start) && !other.End.After(iv.End)
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
}

func compare(a, b Interval) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	return a.End.Compare(b.End)
}

// Merge returns the minimal sorted set of disjoint intervals covering the
// same time as the input. Touching intervals ([9,10) and [10,11)) coalesce.
// Zero and negative duration intervals are dropped. The input is not
// modified.
func Merge(intervals []Interval) []Interval {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.Empty() {
			sorted = append(sorted, iv)
		}
	}
	if len(sorted) == 0 {
		return []Interval{}
	}
	slices.SortFunc(sorted, compare)

	merged := make([]Interval, 0, len(sorted))
	merged = append(merged, sorted[0])
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// TotalDuration sums the durations of the given intervals.
func TotalDuration(intervals []Interval) time.Duration {
	var total time.Duration
	for _, iv := range intervals {
		total += iv.Duration()
	}
	return total
}
