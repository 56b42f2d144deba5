package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds broker settings for lifecycle events and the catalog feed.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds settings for the sweep lock.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// SweepConfig controls the scheduled expiry sweep.
type SweepConfig struct {
	Enabled     bool
	Interval    time.Duration
	Concurrency int
	LockTTL     time.Duration
	RunOnStart  bool
}

// BookingConfig holds booking lifecycle policy switches.
type BookingConfig struct {
	StrictExtendValidation bool
}

// ServiceConfig holds all configuration for the rental booking service.
type ServiceConfig struct {
	Port           string
	AppEnv         string
	StoreDriver    string
	JWTSecret      string
	CORSOrigins    []string
	RequestTimeout time.Duration
	Location       *time.Location
	DBConfig       DatabaseConfig
	KafkaConfig    KafkaConfig
	RedisConfig    RedisConfig
	SweepConfig    SweepConfig
	BookingConfig  BookingConfig
}

// Load reads configuration from the environment, after loading a .env file if present.
func Load() (*ServiceConfig, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RENTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("JWT_SECRET", "local-dev-secret")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "rental_booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "rental-")

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SWEEP_ENABLED", true)
	v.SetDefault("SWEEP_INTERVAL", "24h")
	v.SetDefault("SWEEP_CONCURRENCY", 4)
	v.SetDefault("SWEEP_LOCK_TTL", "10m")
	v.SetDefault("SWEEP_RUN_ON_START", false)

	v.SetDefault("BOOKING_STRICT_EXTEND_VALIDATION", false)
}

func fromViper(v *viper.Viper) (*ServiceConfig, error) {
	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	driver := v.GetString("STORE_DRIVER")
	if driver != "postgres" && driver != "memory" {
		return nil, fmt.Errorf("invalid STORE_DRIVER %q: want postgres or memory", driver)
	}

	concurrency := v.GetInt("SWEEP_CONCURRENCY")
	if concurrency < 1 {
		concurrency = 1
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:           port,
		AppEnv:         v.GetString("APP_ENV"),
		StoreDriver:    driver,
		JWTSecret:      v.GetString("JWT_SECRET"),
		CORSOrigins:    splitList(v.GetString("CORS_ORIGINS")),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),
		Location:       loc,
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:     v.GetBool("KAFKA_ENABLED"),
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		RedisConfig: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		SweepConfig: SweepConfig{
			Enabled:     v.GetBool("SWEEP_ENABLED"),
			Interval:    v.GetDuration("SWEEP_INTERVAL"),
			Concurrency: concurrency,
			LockTTL:     v.GetDuration("SWEEP_LOCK_TTL"),
			RunOnStart:  v.GetBool("SWEEP_RUN_ON_START"),
		},
		BookingConfig: BookingConfig{
			StrictExtendValidation: v.GetBool("BOOKING_STRICT_EXTEND_VALIDATION"),
		},
	}, nil
}

func splitList(csv string) []string {
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
