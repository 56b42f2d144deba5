package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	"github.com/rentify/service-booking/internal/platform/apperror"
	"github.com/rentify/service-booking/internal/platform/metrics"
)

// SweepResult is the outcome of one expiry sweep.
type SweepResult struct {
	DryRun         bool        `json:"dry_run"`
	CompletedCount int         `json:"completed_count"`
	Candidates     []uuid.UUID `json:"candidates"`
	Errors         []string    `json:"errors"`
}

// ReminderResult is the outcome of one return-reminder run.
type ReminderResult struct {
	DueOn    string      `json:"due_on"`
	Notified []uuid.UUID `json:"notified"`
}

// ExpirySweeper completes confirmed bookings whose rental window has elapsed.
type ExpirySweeper struct {
	repo        bookingDomain.BookingRepository
	service     *BookingService
	dispatcher  *Dispatcher
	concurrency int
	logger      *zap.Logger
}

// NewExpirySweeper creates a sweeper expiring up to concurrency bookings at a time.
func NewExpirySweeper(
	repo bookingDomain.BookingRepository,
	service *BookingService,
	dispatcher *Dispatcher,
	concurrency int,
	logger *zap.Logger,
) *ExpirySweeper {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ExpirySweeper{
		repo:        repo,
		service:     service,
		dispatcher:  dispatcher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run expires every CONFIRMED booking with an end date before today. Each
// booking is its own unit of work; a failure is recorded and the sweep goes
// on. In dry-run mode nothing is mutated and the candidates are reported.
func (s *ExpirySweeper) Run(ctx context.Context, dryRun bool) (*SweepResult, error) {
	today := s.service.Today()
	mode := "live"
	if dryRun {
		mode = "dry_run"
	}
	metrics.SweepRunsTotal.WithLabelValues("expiry", mode).Inc()

	candidates, err := s.repo.FindExpired(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired bookings: %w", err)
	}

	result := &SweepResult{
		DryRun:     dryRun,
		Candidates: make([]uuid.UUID, 0, len(candidates)),
		Errors:     []string{},
	}
	for _, bk := range candidates {
		result.Candidates = append(result.Candidates, bk.ID())
	}
	if dryRun {
		s.logger.Info("expiry sweep dry run", zap.Int("candidates", len(candidates)))
		return result, nil
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, bk := range candidates {
		id := bk.ID()
		g.Go(func() error {
			_, err := s.service.Expire(ctx, id, today)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failure := apperror.NewSweepItemFailure(id.String(), err)
				result.Errors = append(result.Errors, failure.Message)
				metrics.SweepErrorsTotal.Inc()
				s.logger.Error("failed to expire booking", zap.String("booking_id", id.String()), zap.Error(err))
				return nil
			}
			result.CompletedCount++
			metrics.SweepExpiredTotal.Inc()
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("expiry sweep finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("completed", result.CompletedCount),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

// RunReturnReminders emits a return_due event for every CONFIRMED booking
// ending tomorrow. It changes no state.
func (s *ExpirySweeper) RunReturnReminders(ctx context.Context) (*ReminderResult, error) {
	metrics.SweepRunsTotal.WithLabelValues("reminders", "live").Inc()
	tomorrow := s.service.Today().AddDate(0, 0, 1)

	due, err := s.repo.FindConfirmedEndingOn(ctx, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings due tomorrow: %w", err)
	}

	result := &ReminderResult{
		DueOn:    tomorrow.Format(bookingDomain.DateLayout),
		Notified: make([]uuid.UUID, 0, len(due)),
	}
	for _, bk := range due {
		s.dispatcher.Dispatch(ctx, bookingDomain.NewEvent(bookingDomain.EventReturnDue, bk, nil))
		result.Notified = append(result.Notified, bk.ID())
	}

	s.logger.Info("return reminders sent", zap.String("due_on", result.DueOn), zap.Int("count", len(due)))
	return result, nil
}
