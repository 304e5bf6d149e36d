package sync

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs the pipeline on a fixed interval until its context is
// cancelled.
type Scheduler struct {
	pipeline *Pipeline
	interval time.Duration
	logger   *zap.Logger
}

// NewScheduler creates an interval scheduler for the pipeline.
func NewScheduler(pipeline *Pipeline, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{pipeline: pipeline, interval: interval, logger: logger}
}

// Run blocks, firing one sync cycle per interval tick, until ctx is
// cancelled. A cycle still in flight when the next tick lands makes that tick
// a no-op rather than stacking a second cycle.
func (s *Scheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("Sync scheduler disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sync scheduler started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sync scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.pipeline.RunOnce(ctx); err != nil {
				switch {
				case errors.Is(err, ErrAlreadyRunning):
					s.logger.Warn("Sync tick skipped: previous cycle still running")
				case errors.Is(err, ErrNothingToLoad):
					s.logger.Warn("Sync tick loaded nothing", zap.Error(err))
				default:
					s.logger.Error("Scheduled sync cycle failed", zap.Error(err))
				}
			}
		}
	}
}
