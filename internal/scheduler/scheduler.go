// Package scheduler runs the periodic expiry sweep and return reminders.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/platform/lock"
)

// LockKey names the lease that keeps one replica sweeping at a time.
const LockKey = "expiry-sweep"

// Sweeper is the work the scheduler triggers.
type Sweeper interface {
	Run(ctx context.Context, dryRun bool) (*application.SweepResult, error)
	RunReturnReminders(ctx context.Context) (*application.ReminderResult, error)
}

// Config controls the schedule.
type Config struct {
	Interval   time.Duration
	LockTTL    time.Duration
	RunOnStart bool
}

// Scheduler ticks every Interval and sweeps when it holds the lease.
type Scheduler struct {
	sweeper Sweeper
	locker  lock.Locker
	cfg     Config
	logger  *zap.Logger
}

// New creates a Scheduler.
func New(sweeper Sweeper, locker lock.Locker, cfg Config, logger *zap.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Scheduler{sweeper: sweeper, locker: locker, cfg: cfg, logger: logger}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("sweep scheduler started", zap.Duration("interval", s.cfg.Interval))
	if s.cfg.RunOnStart {
		s.Tick(ctx)
	}

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-ctx.Done():
			s.logger.Info("sweep scheduler stopped")
			return
		}
	}
}

// Tick performs one scheduled run: expiry first, then reminders. It reports
// whether this process held the lease.
func (s *Scheduler) Tick(ctx context.Context) bool {
	release, err := s.locker.Acquire(ctx, LockKey, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			s.logger.Debug("sweep skipped, another replica holds the lock")
		} else {
			s.logger.Error("failed to acquire sweep lock", zap.Error(err))
		}
		return false
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sweep lock", zap.Error(err))
		}
	}()

	if _, err := s.sweeper.Run(ctx, false); err != nil {
		s.logger.Error("expiry sweep failed", zap.Error(err))
	}
	if _, err := s.sweeper.RunReturnReminders(ctx); err != nil {
		s.logger.Error("return reminders failed", zap.Error(err))
	}
	return true
}
