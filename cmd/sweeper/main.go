// Command sweeper runs one expiry sweep and exits. It is meant for cron-style
// deployments where the in-process scheduler is disabled.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/config"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	bookingEvents "github.com/rentify/service-booking/internal/events"
	"github.com/rentify/service-booking/internal/platform/kafka"
	"github.com/rentify/service-booking/internal/platform/logger"
	"github.com/rentify/service-booking/internal/repository"
)

func main() {
	var (
		dryRun     = pflag.Bool("dry-run", false, "report expired bookings without completing them")
		reminders  = pflag.Bool("reminders", false, "also emit return reminders for bookings ending tomorrow")
		reconcile  = pflag.Bool("reconcile", false, "recompute every item's availability flag afterwards")
		migrations = pflag.String("migrations", "migrations", "directory holding the SQL migrations")
	)
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewNamed(cfg.AppEnv, "booking-sweeper")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log, *dryRun, *reminders, *reconcile, *migrations); err != nil {
		log.Error("sweeper failed", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.ServiceConfig, log *zap.Logger, dryRun, reminders, reconcile bool, migrationsDir string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := repository.Open(cfg, migrationsDir, log)
	if err != nil {
		return err
	}

	var publisher kafka.Publisher = kafka.NewNopPublisher(log)
	if cfg.KafkaConfig.Enabled && !dryRun {
		publisher = kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	}
	defer func() { _ = publisher.Close() }()

	dispatcher := application.NewDispatcher(log,
		bookingEvents.NewNotificationListener(publisher),
		bookingEvents.NewReviewListener(publisher),
	)
	bookingService := application.NewBookingService(
		st.UnitOfWork,
		st.Bookings,
		bookingDomain.NewStandardPricingStrategy(),
		dispatcher,
		application.BookingServiceConfig{
			StrictExtendValidation: cfg.BookingConfig.StrictExtendValidation,
			Location:               cfg.Location,
		},
		log,
	)
	sweeper := application.NewExpirySweeper(st.Bookings, bookingService, dispatcher, cfg.SweepConfig.Concurrency, log)

	report := map[string]any{}

	result, err := sweeper.Run(ctx, dryRun)
	if err != nil {
		return err
	}
	report["expiry"] = result

	if reminders && !dryRun {
		rem, err := sweeper.RunReturnReminders(ctx)
		if err != nil {
			return err
		}
		report["reminders"] = rem
	}

	if reconcile && !dryRun {
		availability := application.NewAvailabilityService(st.UnitOfWork, st.Items, st.Bookings, bookingService.Today, log)
		rec, err := availability.Reconcile(ctx, nil)
		if err != nil {
			return err
		}
		report["reconcile"] = rec
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
