package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harrisonrobin/freetime/pkg/history"
	"github.com/harrisonrobin/freetime/pkg/util"
)

// WriteHistory lists stored runs, newest first.
func WriteHistory(w io.Writer, runs []history.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No stored runs.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSaved\tRange\tProvider\tFree\tRatio\tFocus\t")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s..%s\t%s\t%s\t%s\t%s\t\n",
			shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04"), r.From, r.To, r.Provider,
			util.FormatDuration(r.FreeDuration), util.FormatPercent(r.ProductivityRatio), util.FormatPercent(r.EffectiveFocusRatio))
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
