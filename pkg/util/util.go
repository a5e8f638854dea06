package util

import (
	"fmt"
	"strings"
	"time"
)

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", s, err)
	}
	return t, nil
}

// PreviousWorkWeek returns Monday and Friday of the week before the one
// containing now, as midnights in now's location.
func PreviousWorkWeek(now time.Time) (time.Time, time.Time) {
	// Weekday() counts from Sunday; shift so Monday is 0.
	offset := (int(now.Weekday()) + 6) % 7
	monday := time.Date(now.Year(), now.Month(), now.Day()-offset-7, 0, 0, 0, 0, now.Location())
	friday := time.Date(monday.Year(), monday.Month(), monday.Day()+4, 0, 0, 0, 0, now.Location())
	return monday, friday
}

// FormatDuration renders d as H:MM, truncating seconds.
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int(d / time.Minute)
	return fmt.Sprintf("%s%d:%02d", sign, total/60, total%60)
}

// FormatPercent renders a 0..1 ratio as a percentage with two decimals.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// ParseWeekdays parses names like "mon", "Tuesday" into weekdays.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		n := strings.ToLower(strings.TrimSpace(name))
		found := false
		for d := time.Sunday; d <= time.Saturday; d++ {
			full := strings.ToLower(d.String())
			if n == full || (len(n) >= 3 && strings.HasPrefix(full, n)) {
				days = append(days, d)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
	}
	return days, nil
}
