// Package scheduler runs periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/elemevent/site/internal/media"
)

// MediaSweeper is the job run on schedule.
type MediaSweeper interface {
	Run(ctx context.Context, dryRun bool) (media.SweepResult, error)
}

// Scheduler wraps a cron runner whose jobs stop with the context passed to
// Start.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		log:  log,
	}
}

// AddMediaSweep schedules s with a standard five-field cron expression. An empty
// expression disables the job.
func (s *Scheduler) AddMediaSweep(ctx context.Context, expr string, sw MediaSweeper) error {
	if expr == "" {
		s.log.Info().Msg("media sweep disabled")
		return nil
	}
	_, err := s.cron.AddFunc(expr, func() {
		runCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
		res, err := sw.Run(runCtx, false)
		if err != nil {
			s.log.Error().Err(err).Msg("media sweep failed")
			return
		}
		s.log.Info().
			Int("images", res.Images).
			Int("used", res.Used).
			Int("removed", res.Removed).
			Int("failed", res.Failed).
			Msg("media sweep done")
	})
	if err != nil {
		return fmt.Errorf("schedule media sweep %q: %w", expr, err)
	}
	s.log.Info().Str("schedule", expr).Msg("media sweep scheduled")
	return nil
}

// Start runs the scheduler until ctx is done, then waits for running jobs.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
		s.log.Info().Msg("scheduler stopped")
	}()
}

// Entries reports the number of scheduled jobs.
func (s *Scheduler) Entries() int { return len(s.cron.Entries()) }
