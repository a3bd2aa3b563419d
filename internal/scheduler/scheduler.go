package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/example/duosync/internal/vocab"
)

// SyncFunc runs one unattended sync
type SyncFunc func(ctx context.Context) (*vocab.ImportResult, error)

// Scheduler runs a sync every interval, never two at once
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	sync      SyncFunc
	log       *slog.Logger
}

// New creates a new scheduler instance
func New(interval time.Duration, sync SyncFunc, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		interval:  interval,
		sync:      sync,
		log:       log.With("component", "scheduler"),
	}
}

// Start schedules the sync and runs the first one right away. Runs see ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.run, ctx)
	if err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}
	s.scheduler.StartAsync()
	s.log.Info("watching for new vocabulary", "interval", s.interval)
	return nil
}

// Stop terminates all scheduled tasks, waiting for a running sync
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// NextRun reports when the sync runs next
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

func (s *Scheduler) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("scheduled sync failed", "error", err)
	}
}

// RunNow forces a sync outside the schedule
func (s *Scheduler) RunNow(ctx context.Context) (*vocab.ImportResult, error) {
	start := time.Now()
	result, err := s.sync(ctx)
	if errors.Is(err, vocab.ErrCancelled) {
		s.log.Info("sync skipped")
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if result != nil {
		s.log.Info("sync finished",
			"language", result.Language,
			"added", result.Added,
			"took", time.Since(start).Round(time.Millisecond))
	}
	return result, nil
}
