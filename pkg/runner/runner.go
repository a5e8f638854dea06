// Package runner wires a configured event source through filtering,
// analysis and history.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harrisonrobin/freetime/pkg/analysis"
	"github.com/harrisonrobin/freetime/pkg/config"
	"github.com/harrisonrobin/freetime/pkg/filter"
	"github.com/harrisonrobin/freetime/pkg/google"
	"github.com/harrisonrobin/freetime/pkg/history"
	"github.com/harrisonrobin/freetime/pkg/ics"
	"github.com/harrisonrobin/freetime/pkg/index"
	"github.com/harrisonrobin/freetime/pkg/jsonsource"
	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

// Runner performs one analysis per call. History may be nil.
type Runner struct {
	Source   model.Source
	Provider string
	Policy   filter.Policy
	History  *history.Store
}

// Result is a finished analysis and, if it was stored, its run ID.
type Result struct {
	Report analysis.Report
	RunID  string
}

// Run fetches events for the dates in opts, analyzes them and, if save is
// set and a store is configured, records the report.
func (r *Runner) Run(ctx context.Context, opts analysis.Options, save bool) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	from, to := FetchRange(opts)
	events, err := r.Source.FetchEvents(ctx, from, to)
	if err != nil {
		return Result{}, fmt.Errorf("fetch events: %w", err)
	}

	busy, dropped := r.Policy.Apply(events)
	log.Info("events fetched", "provider", r.Provider, "total", len(events), "busy", len(busy), "filtered", dropped)

	report, err := analysis.Analyze(busy, opts)
	if err != nil {
		return Result{}, err
	}
	for _, s := range report.Skipped {
		log.Warn("event skipped", "id", s.EventID, "subject", s.Subject, "source", s.Source, "reason", s.Reason)
	}

	res := Result{Report: report}
	if save && r.History != nil {
		run, err := r.History.Save(ctx, r.Provider, report)
		if err != nil {
			return res, fmt.Errorf("save history: %w", err)
		}
		res.RunID = run.ID
		log.Debug("run saved", "id", run.ID)
	}
	return res, nil
}

// FetchRange is the instant range covering every date in opts: midnight of
// the first date to midnight after the last, in the reference zone.
func FetchRange(opts analysis.Options) (time.Time, time.Time) {
	loc := opts.Location
	from := time.Date(opts.From.Year(), opts.From.Month(), opts.From.Day(), 0, 0, 0, 0, loc)
	to := time.Date(opts.To.Year(), opts.To.Month(), opts.To.Day()+1, 0, 0, 0, 0, loc)
	return from, to
}

// NewSource builds the event source for cfg. A non-empty eventsFile
// overrides the configured provider with the JSON reader.
func NewSource(ctx context.Context, cfg *config.Config, eventsFile string) (model.Source, string, error) {
	if eventsFile != "" {
		return jsonsource.NewClient(eventsFile), config.ProviderJSON, nil
	}

	switch cfg.Provider {
	case config.ProviderGoogle:
		idx, err := index.NewCalendarIndex()
		if err != nil {
			return nil, "", err
		}
		client, err := google.NewClient(ctx, cfg.Calendar, idx)
		if err != nil {
			return nil, "", err
		}
		return client, config.ProviderGoogle, nil
	case config.ProviderICS:
		loc, err := analysis.ResolveLocation(cfg.Timezone)
		if err != nil {
			return nil, "", err
		}
		feeds := make([]ics.Feed, 0, len(cfg.ICS))
		for i, src := range cfg.ICS {
			id := src.ID
			if id == "" {
				id = fmt.Sprintf("feed%d", i+1)
			}
			feeds = append(feeds, ics.Feed{ID: id, URL: src.URL})
		}
		fetcher := ics.NewFetcher(nil, "")
		return ics.NewSource(fetcher, feeds, ics.ParseOptions{Attendee: cfg.AttendeeEmail, Location: loc}), config.ProviderICS, nil
	case config.ProviderJSON:
		return nil, "", errors.New("json provider requires an events file")
	default:
		return nil, "", fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
