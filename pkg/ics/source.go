package ics

import (
	"context"
	"time"

	"github.com/harrisonrobin/freetime/pkg/log"
	"github.com/harrisonrobin/freetime/pkg/model"
)

// Source merges one or more feeds into a single event source.
type Source struct {
	fetcher *Fetcher
	feeds   []Feed
	opts    ParseOptions
}

func NewSource(fetcher *Fetcher, feeds []Feed, opts ParseOptions) *Source {
	return &Source{fetcher: fetcher, feeds: feeds, opts: opts}
}

func (s *Source) FetchEvents(ctx context.Context, from, to time.Time) ([]model.Event, error) {
	results, err := s.fetcher.FetchAll(ctx, s.feeds)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	for _, res := range results {
		parsed, err := ParseICS(res.Feed.ID, res.Body, s.opts)
		if err != nil {
			return nil, err
		}
		events := Expand(parsed, from, to)
		log.Info("ics feed loaded", "feed", res.Feed.ID, "from_cache", res.FromCache, "events", len(events))
		out = append(out, events...)
	}
	return out, nil
}
