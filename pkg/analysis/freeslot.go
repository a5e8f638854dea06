package analysis

// ClipBusy intersects busy time with window. The result is sorted, disjoint
// and lies inside the window.
func ClipBusy(window Interval, busy []Interval) []Interval {
	clipped := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if !b.Overlaps(window) {
			continue
		}
		c := b
		if c.Start.Before(window.Start) {
			c.Start = window.Start
		}
		if c.End.After(window.End) {
			c.End = window.End
		}
		clipped = append(clipped, c)
	}
	return Merge(clipped)
}

// FreeSlots returns the gaps of window not covered by busy, in order.
// A fully booked window yields no slots; a window without busy time yields
// the window itself.
func FreeSlots(window Interval, busy []Interval) []Interval {
	slots := []Interval{}
	if window.Empty() {
		return slots
	}

	cursor := window.Start
	for _, b := range ClipBusy(window, busy) {
		if b.Start.After(cursor) {
			slots = append(slots, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if window.End.After(cursor) {
		slots = append(slots, Interval{Start: cursor, End: window.End})
	}
	return slots
}
