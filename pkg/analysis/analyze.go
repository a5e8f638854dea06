package analysis

import "github.com/harrisonrobin/freetime/pkg/model"

// Analyze computes the free-time report for events under opts.
//
// Configuration problems are returned as *ConfigurationError before any
// event is looked at. Malformed events never fail the run; they are listed in
// Report.Skipped. No usable events still yields a valid, fully free report.
func Analyze(events []model.Event, opts Options) (Report, error) {
	windows, err := WorkWindows(opts)
	if err != nil {
		return Report{}, err
	}

	intervals, skipped := Normalize(events, opts.Location)
	busy := Merge(intervals)

	days := make([]DayReport, 0, len(windows))
	for _, w := range windows {
		days = append(days, NewDay(w, busy))
	}

	report := Aggregate(days, opts)
	report.Skipped = skipped
	return report, nil
}
