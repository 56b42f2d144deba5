package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rentify/service-booking/internal/application"
	"github.com/rentify/service-booking/internal/config"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	bookingEvents "github.com/rentify/service-booking/internal/events"
	"github.com/rentify/service-booking/internal/handler"
	"github.com/rentify/service-booking/internal/platform/auth"
	"github.com/rentify/service-booking/internal/platform/health"
	"github.com/rentify/service-booking/internal/platform/kafka"
	"github.com/rentify/service-booking/internal/platform/lock"
	"github.com/rentify/service-booking/internal/platform/logger"
	"github.com/rentify/service-booking/internal/platform/metrics"
	"github.com/rentify/service-booking/internal/platform/middleware"
	"github.com/rentify/service-booking/internal/repository"
	"github.com/rentify/service-booking/internal/scheduler"
)

const serviceName = "service-booking"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("timezone", cfg.Location.String()),
	)

	st, err := repository.Open(cfg, "migrations", log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}

	checkers := []health.Checker{}
	if st.DB != nil {
		sqlDB, err := st.DB.DB()
		if err != nil {
			log.Fatal("failed to access sql.DB", zap.Error(err))
		}
		checkers = append(checkers, health.CheckFunc{DependencyName: "postgres", Fn: sqlDB.PingContext})
	}

	// Initialize Kafka producer
	var publisher kafka.Publisher = kafka.NewNopPublisher(log)
	if cfg.KafkaConfig.Enabled {
		publisher = kafka.NewProducer(cfg.KafkaConfig.Brokers, log)
	}
	defer func() { _ = publisher.Close() }()

	// Sweep lock
	var locker lock.Locker = lock.NewLocalLocker()
	if cfg.RedisConfig.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		defer func() { _ = rdb.Close() }()
		locker = lock.NewRedisLocker(rdb, "rental:")
		checkers = append(checkers, health.CheckFunc{
			DependencyName: "redis",
			Fn:             func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}

	// Lifecycle listeners
	dispatcher := application.NewDispatcher(log,
		bookingEvents.NewNotificationListener(publisher),
		bookingEvents.NewBillingListener(publisher, log),
		bookingEvents.NewReviewListener(publisher),
		bookingEvents.NewLogisticsListener(publisher),
	)

	// Initialize application services
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
	availabilityService := application.NewAvailabilityService(st.UnitOfWork, st.Items, st.Bookings, bookingService.Today, log)
	itemService := application.NewItemService(st.Items, log)
	sweeper := application.NewExpirySweeper(st.Bookings, bookingService, dispatcher, cfg.SweepConfig.Concurrency, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var workers sync.WaitGroup

	// Catalog feed consumer
	if cfg.KafkaConfig.Enabled {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		catalogConsumer := bookingEvents.NewCatalogConsumer(cfg.KafkaConfig.Brokers, groupID, itemService, log)
		defer func() { _ = catalogConsumer.Close() }()

		workers.Add(1)
		go func() {
			defer workers.Done()
			log.Info("starting catalog event consumer")
			if err := catalogConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("catalog event consumer error", zap.Error(err))
			}
		}()
	}

	// Scheduled expiry sweep
	if cfg.SweepConfig.Enabled {
		sched := scheduler.New(sweeper, locker, scheduler.Config{
			Interval:   cfg.SweepConfig.Interval,
			LockTTL:    cfg.SweepConfig.LockTTL,
			RunOnStart: cfg.SweepConfig.RunOnStart,
		}, log.Named("scheduler"))

		workers.Add(1)
		go func() {
			defer workers.Done()
			sched.Run(ctx)
		}()
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)

	// Setup Gin router
	if cfg.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	// Register health check and metrics routes
	health.NewHandler(serviceName, checkers...).RegisterRoutes(router)
	router.GET("/metrics", metrics.Handler())

	// Register routes
	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewItemHandler(itemService, availabilityService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminBookingHandler(bookingService, availabilityService, sweeper).RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Stop the consumer and the scheduler
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}
	workers.Wait()

	log.Info(serviceName + " stopped")
}
