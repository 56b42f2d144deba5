package repository

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rentify/service-booking/internal/config"
	bookingDomain "github.com/rentify/service-booking/internal/domain/booking"
	itemDomain "github.com/rentify/service-booking/internal/domain/item"
	"github.com/rentify/service-booking/internal/platform/database"
	"github.com/rentify/service-booking/internal/repository/memory"
)

// Stores bundles the repositories selected by STORE_DRIVER. DB is nil for the memory driver.
type Stores struct {
	UnitOfWork bookingDomain.UnitOfWork
	Bookings   bookingDomain.BookingRepository
	Items      itemDomain.ItemRepository
	DB         *gorm.DB
}

// Open connects the configured store and brings its schema up to date.
func Open(cfg *config.ServiceConfig, migrationsDir string, log *zap.Logger) (*Stores, error) {
	if cfg.StoreDriver == "memory" {
		log.Warn("using in-memory store, data is lost on restart")
		store := memory.NewStore()
		return &Stores{UnitOfWork: store, Bookings: store, Items: store.Items()}, nil
	}

	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(&ItemModel{}, &BookingModel{}, &HistoryModel{}); err != nil {
			return nil, fmt.Errorf("failed to run auto-migration: %w", err)
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else if err := database.RunMigrations(dbConfig.DatabaseURL(), migrationsDir, log); err != nil {
		return nil, err
	}

	bookingRepo := NewGormBookingRepository(db)
	return &Stores{
		UnitOfWork: bookingRepo,
		Bookings:   bookingRepo,
		Items:      NewGormItemRepository(db),
		DB:         db,
	}, nil
}
