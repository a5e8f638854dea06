// Package schedule re-runs the analysis on a cron schedule while serving.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/harrisonrobin/freetime/pkg/log"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Refresher runs a Job on a standard five-field cron spec. Runs never
// overlap; a tick that arrives while the previous run is busy is skipped.
type Refresher struct {
	cron *cron.Cron
	job  Job
	spec string

	mu  sync.Mutex
	ctx context.Context
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSpec validates a cron spec such as "0 18 * * 5" or "@daily".
func ParseSpec(spec string) (cron.Schedule, error) {
	s, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

func New(spec string, loc *time.Location, job Job) (*Refresher, error) {
	if loc == nil {
		loc = time.Local
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithParser(parser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	r := &Refresher{cron: c, job: job, spec: spec}
	if _, err := c.AddFunc(spec, r.tick); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start schedules the job until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	r.mu.Lock()
	r.ctx = ctx
	r.mu.Unlock()

	r.cron.Start()
	log.Info("refresh scheduled", "spec", r.spec, "next", r.Next())
	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
}

// RunNow executes the job synchronously, outside the schedule.
func (r *Refresher) RunNow(ctx context.Context) error {
	return r.job(ctx)
}

// Next is the next scheduled run, zero before Start.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Refresher) tick() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := r.RunNow(ctx); err != nil {
		log.Error("scheduled analysis failed", err, "spec", r.spec)
		return
	}
	log.Info("scheduled analysis finished", "next", r.Next())
}
