// Package scheduler drives the periodic batch cycle in daemon mode.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/modernusa/newsdesk/internal/pipeline"
	"github.com/modernusa/newsdesk/internal/store"
)

// Scheduler runs collection on an interval and purges old articles after
// each cycle.
type Scheduler struct {
	pipeline      *pipeline.Pipeline
	store         store.Store
	interval      time.Duration
	retentionDays int
}

// New creates a scheduler.
func New(p *pipeline.Pipeline, st store.Store, interval time.Duration, retentionDays int) *Scheduler {
	if interval <= 0 {
		interval = 2 * time.Hour
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &Scheduler{
		pipeline:      p,
		store:         st,
		interval:      interval,
		retentionDays: retentionDays,
	}
}

// Run starts the loop. Blocks until ctx is cancelled. A failed cycle is
// logged and retried on the next tick, never within the same cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("scheduler started", "interval", s.interval)
	s.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	stats, err := s.pipeline.Run(ctx)
	if err != nil {
		slog.Error("collection cycle failed", "error", err)
		return
	}
	slog.Info("collection cycle done", "entries", stats.Entries, "new", stats.NewArticles)

	deleted, err := s.store.Purge(ctx, s.retentionDays)
	if err != nil {
		slog.Error("purge failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("purged old articles", "deleted", deleted)
	}
}
