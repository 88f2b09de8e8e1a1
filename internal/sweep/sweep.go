// Package sweep periodically fails documents stuck in PROCESSING, keeping
// the upload status lifecycle honest when an upload collaborator dies
// mid-flight.
package sweep

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/quire/internal/notify"
	"github.com/zulandar/quire/internal/store"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Sweeper runs the stale-document sweep on a cron schedule.
type Sweeper struct {
	store      *store.Store
	schedule   cron.Schedule
	staleAfter time.Duration
	notifier   notify.Notifier
}

// Opts holds parameters for creating a Sweeper.
type Opts struct {
	Store      *store.Store
	Schedule   string        // 5-field cron expression
	StaleAfter time.Duration // how long PROCESSING may last before it is failed
	Notifier   notify.Notifier
}

// New creates a Sweeper.
func New(opts Opts) (*Sweeper, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("sweep: store is required")
	}
	if opts.StaleAfter <= 0 {
		return nil, fmt.Errorf("sweep: stale-after duration is required")
	}
	sched, err := cronParser.Parse(opts.Schedule)
	if err != nil {
		return nil, fmt.Errorf("sweep: parse schedule %q: %w", opts.Schedule, err)
	}
	return &Sweeper{
		store:      opts.Store,
		schedule:   sched,
		staleAfter: opts.StaleAfter,
		notifier:   opts.Notifier,
	}, nil
}

// Run executes sweeps on the schedule until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		next := s.schedule.Next(time.Now())
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		if _, err := s.RunOnce(ctx); err != nil {
			log.Printf("sweep: %v", err)
		}
	}
}

// RunOnce fails documents stuck in PROCESSING for longer than the
// stale-after bound. Returns the number of documents failed.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.staleAfter)
	n, err := s.store.MarkStaleProcessing(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Printf("sweep: failed %d stale document(s)", n)
		if s.notifier != nil {
			notice := notify.Notice{
				Title: "Stale documents failed",
				Body:  fmt.Sprintf("%d document(s) stuck in PROCESSING were marked FAILED", n),
			}
			if err := s.notifier.Send(ctx, notice); err != nil {
				log.Printf("sweep: notify: %v", err)
			}
		}
	}
	return n, nil
}
