// Package scheduler fires a send function on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// SendFunc performs one delivery run.
type SendFunc func(ctx context.Context) error

// Scheduler runs a send function at each tick of a standard 5-field cron
// schedule until its context is cancelled. A failed run is logged, not
// retried; the next tick fires regardless.
type Scheduler struct {
	schedule cron.Schedule
	send     SendFunc
	logger   *slog.Logger

	// Seams for tests; both default to the real clock.
	now      func() time.Time
	newTimer func(d time.Duration) *time.Timer
}

// New parses spec as a standard cron expression and returns a Scheduler.
func New(spec string, send SendFunc, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}
	return &Scheduler{
		schedule: schedule,
		send:     send,
		logger:   logger,
		now:      time.Now,
		newTimer: time.NewTimer,
	}, nil
}

// NextRun reports when the schedule fires next.
func (s *Scheduler) NextRun() time.Time {
	return s.schedule.Next(s.now())
}

// Run blocks, firing the send function at each tick, until ctx is
// cancelled. It returns the context's error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		// Both the tick and the wait come from the same clock.
		next := s.schedule.Next(s.now())
		timer := s.newTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		if err := s.send(ctx); err != nil {
			s.logger.Error("scheduled send failed", "error", err, "fired_at", next)
			continue
		}
		s.logger.Info("scheduled send delivered", "fired_at", next)
	}
}
