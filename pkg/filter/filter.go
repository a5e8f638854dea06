// Package filter decides which provider events count as busy time before
// they reach the analysis.
package filter

import (
	"strings"

	"github.com/harrisonrobin/freetime/pkg/model"
)

// Policy controls which response statuses block time.
type Policy struct {
	// IncludeTentative counts tentatively accepted meetings as busy.
	IncludeTentative bool
	// IncludeNeedsAction counts unanswered invitations as busy.
	IncludeNeedsAction bool
}

// Busy reports whether ev should be treated as busy time under p.
// Cancelled, declined and show-as-free events never are.
func (p Policy) Busy(ev model.Event) bool {
	if strings.EqualFold(ev.Status, model.StatusCancelled) {
		return false
	}
	if strings.EqualFold(ev.ShowAs, model.ShowAsFree) {
		return false
	}
	switch strings.ToLower(ev.ResponseStatus) {
	case model.ResponseAccepted, model.ResponseOrganizer, model.ResponseNone:
		return true
	case model.ResponseTentative:
		return p.IncludeTentative
	case model.ResponseNeedsAction:
		return p.IncludeNeedsAction
	default:
		return false
	}
}

// Apply returns the busy events and the number dropped.
func (p Policy) Apply(events []model.Event) ([]model.Event, int) {
	kept := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if p.Busy(ev) {
			kept = append(kept, ev)
		}
	}
	return kept, len(events) - len(kept)
}
