// Package scheduler runs the daily auto-close sweep at 23:00 in the
// school timezone.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/campushq/attendance/internal/timeutil"
)

// Sweeper force-closes lingering open sessions against a cutoff
// instant derived from the run time's local calendar day.
type Sweeper interface {
	SweepAutoClose(ctx context.Context, runInstant time.Time) (int, error)
}

type Scheduler struct {
	logger  *slog.Logger
	cron    *cron.Cron
	sweeper Sweeper
	clock   timeutil.Clock

	// OnSwept, when set, is called after a sweep that closed at least
	// one session, for the nightly digest mail.
	OnSwept func(closed int)
}

func New(logger *slog.Logger, sweeper Sweeper, clock timeutil.Clock, loc *time.Location) *Scheduler {
	logger = logger.With("module", "scheduler")

	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLocation(loc),
			// Overlapping ticks must never run concurrently; a late or
			// slow sweep skips the next fire instead of doubling up.
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		sweeper: sweeper,
		clock:   clock,
	}
}

// Start registers the daily sweep and launches the cron loop. Sweep
// errors are logged, never fatal: the open rows still match the open
// predicate, so the next tick retries them.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("0 23 * * *", s.runSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "job", "auto_close_sessions", "spec", "0 23 * * *")

	return nil
}

// Stop halts scheduling and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	closed, err := s.sweeper.SweepAutoClose(ctx, s.clock.Now())
	if err != nil {
		s.logger.Error("auto-close sweep failed", "error", err)
		return
	}

	s.logger.Info("auto-close sweep finished", "closed", closed)

	if closed > 0 && s.OnSwept != nil {
		s.OnSwept(closed)
	}
}
