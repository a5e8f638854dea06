// Package report renders analysis results for terminals and machines.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/util"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// TextOptions select the optional sections of the text report.
type TextOptions struct {
	// Slots lists every free slot, marking focus slots with '*'.
	Slots bool
	// Skipped lists events the analysis could not use.
	Skipped bool
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText writes a human readable report.
func WriteText(w io.Writer, r analysis.Report, opts TextOptions) error {
	ew := &errWriter{w: w}
	ew.printf("Analyzing calendar from %s to %s (%s)\n", r.From.Format(dateLayout), r.To.Format(dateLayout), r.TimeZone)
	ew.printf("Work hours: %s - %s\n", r.WorkStart, r.WorkEnd)

	if len(r.Days) == 0 {
		ew.printf("\nNo work days in range.\n")
		return ew.err
	}

	ew.printf("\nDays:\n")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tDay\tWork\tBusy\tFree\t")
	for _, d := range r.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			d.Date.Format(dateLayout), d.Date.Weekday().String()[:3],
			util.FormatDuration(d.WorkDuration), util.FormatDuration(d.BusyDuration), util.FormatDuration(d.FreeDuration))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.Slots {
		writeSlots(ew, r)
	}

	ew.printf("\nSummary:\n")
	tw = tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Total work time:\t%s\n", util.FormatDuration(r.WorkDuration))
	fmt.Fprintf(tw, "Total busy time:\t%s\n", util.FormatDuration(r.BusyDuration))
	fmt.Fprintf(tw, "Total free time:\t%s\n", util.FormatDuration(r.FreeDuration))
	fmt.Fprintf(tw, "Productivity ratio:\t%s\n", util.FormatPercent(r.ProductivityRatio))
	fmt.Fprintf(tw, "Focus slots (>= %s):\t%d, %s\n", util.FormatDuration(r.MinFocusSlot), r.FocusSlots, util.FormatDuration(r.FocusDuration))
	fmt.Fprintf(tw, "Effective focus time:\t%s (%s)\n", util.FormatDuration(r.EffectiveFocusDuration), util.FormatPercent(r.EffectiveFocusRatio))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Skipped) > 0 {
		if opts.Skipped {
			ew.printf("\nSkipped events:\n")
			for _, s := range r.Skipped {
				ew.printf("  - %s (%s): %s\n", displayName(s), s.Source, s.Reason)
			}
		} else {
			ew.printf("\n%d event(s) skipped; rerun with --verbose for details.\n", len(r.Skipped))
		}
	}
	return ew.err
}

func writeSlots(ew *errWriter, r analysis.Report) {
	ew.printf("\nFree slots (* = at least %s):\n", util.FormatDuration(r.MinFocusSlot))
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Date\tStart\tEnd\tDuration\t\t")
	found := false
	for _, d := range r.Days {
		for _, slot := range d.Free {
			found = true
			mark := ""
			if slot.Duration() >= r.MinFocusSlot {
				mark = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
				d.Date.Format(dateLayout), slot.Start.Format(clockLayout), slot.End.Format(clockLayout),
				util.FormatDuration(slot.Duration()), mark)
		}
	}
	if !found {
		fmt.Fprintln(tw, "No free time slots found.")
	}
	if err := tw.Flush(); err != nil && ew.err == nil {
		ew.err = err
	}
}

func displayName(s analysis.SkippedEvent) string {
	if s.Subject != "" {
		return fmt.Sprintf("%q", s.Subject)
	}
	return s.EventID
}

// errWriter remembers the first write error so rendering code can stay flat.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

func (ew *errWriter) printf(format string, args ...any) {
	fmt.Fprintf(ew, format, args...)
}
