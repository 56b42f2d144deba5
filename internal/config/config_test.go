package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(newTestViper(nil))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SweepConfig.Interval)
	assert.Equal(t, 4, cfg.SweepConfig.Concurrency)
	assert.False(t, cfg.BookingConfig.StrictExtendValidation)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, time.UTC, cfg.Location)
}

func TestFromViper_Overrides(t *testing.T) {
	cfg, err := fromViper(newTestViper(map[string]any{
		"SERVICE_PORT":                     ":9000",
		"KAFKA_BROKERS":                    "a:9092, b:9092,,",
		"SWEEP_CONCURRENCY":                0,
		"BOOKING_STRICT_EXTEND_VALIDATION": true,
		"STORE_DRIVER":                     "memory",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 1, cfg.SweepConfig.Concurrency)
	assert.True(t, cfg.BookingConfig.StrictExtendValidation)
	assert.Equal(t, "memory", cfg.StoreDriver)
}

func TestFromViper_RejectsUnknownDriver(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"STORE_DRIVER": "mongo"}))
	require.Error(t, err)
}

func TestFromViper_RejectsBadTimezone(t *testing.T) {
	_, err := fromViper(newTestViper(map[string]any{"TIMEZONE": "Mars/Olympus"}))
	require.Error(t, err)
}
