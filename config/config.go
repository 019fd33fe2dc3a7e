package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr       string `mapstructure:"REDIS_ADDR"`
	RedisPassword   string `mapstructure:"REDIS_PASSWORD"`
	RedisTravelDB   int    `mapstructure:"REDIS_TRAVEL_DB"`
	RedisLocationDB int    `mapstructure:"REDIS_LOCATION_DB"`
	RedisLockDB     int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB    int    `mapstructure:"REDIS_QUEUE_DB"`

	// Google Maps API Key for the travel provider.
	GoogleAPIKey string `mapstructure:"GOOGLE_API_KEY"`

	// Travel oracle tuning.
	TravelProviderTimeoutMS int     `mapstructure:"TRAVEL_PROVIDER_TIMEOUT_MS"`
	TravelCacheTTLMin       int     `mapstructure:"TRAVEL_CACHE_TTL_MIN"`
	TravelFixedPairTTLHours int     `mapstructure:"TRAVEL_FIXED_PAIR_TTL_HOURS"`
	TravelFallbackTTLSec    int     `mapstructure:"TRAVEL_FALLBACK_TTL_SEC"`
	TravelFallbackMinPerMi  float64 `mapstructure:"TRAVEL_FALLBACK_MIN_PER_MILE"`

	// Slot generation tuning.
	SlotStepMin        int `mapstructure:"SLOT_STEP_MIN"`
	SlotBufferMin      int `mapstructure:"SLOT_BUFFER_MIN"`
	SlotTightMarginMin int `mapstructure:"SLOT_TIGHT_MARGIN_MIN"`
	SlotLiveHorizonMin int `mapstructure:"SLOT_LIVE_HORIZON_MIN"`

	// Live location staleness threshold.
	LiveLocationStaleMin int `mapstructure:"LIVE_LOCATION_STALE_MIN"`

	// Idempotency record retention.
	IdempotencyTTLHours int `mapstructure:"IDEMPOTENCY_TTL_HOURS"`

	// Hour of day (local) at which the travel-cache warmup is enqueued.
	WarmupHour int `mapstructure:"WARMUP_HOUR"`

	// Seconds between dependency health probes.
	HealthCheckIntervalSec int `mapstructure:"HEALTH_CHECK_INTERVAL_SEC"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_TRAVEL_DB", 0)
	viper.SetDefault("REDIS_LOCATION_DB", 1)
	viper.SetDefault("REDIS_LOCK_DB", 2)
	viper.SetDefault("REDIS_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("TRAVEL_PROVIDER_TIMEOUT_MS", 2000)
	viper.SetDefault("TRAVEL_CACHE_TTL_MIN", 15)
	viper.SetDefault("TRAVEL_FIXED_PAIR_TTL_HOURS", 24)
	viper.SetDefault("TRAVEL_FALLBACK_TTL_SEC", 30)
	viper.SetDefault("TRAVEL_FALLBACK_MIN_PER_MILE", 2.0)
	viper.SetDefault("SLOT_STEP_MIN", 30)
	viper.SetDefault("SLOT_BUFFER_MIN", 15)
	viper.SetDefault("SLOT_TIGHT_MARGIN_MIN", 10)
	viper.SetDefault("SLOT_LIVE_HORIZON_MIN", 120)
	viper.SetDefault("LIVE_LOCATION_STALE_MIN", 30)
	viper.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	viper.SetDefault("WARMUP_HOUR", 21)
	viper.SetDefault("HEALTH_CHECK_INTERVAL_SEC", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// ProviderTimeout returns the bounded timeout applied to travel provider calls.
func ProviderTimeout() time.Duration {
	return time.Duration(AppConfig.TravelProviderTimeoutMS) * time.Millisecond
}

// DynamicPairTTL is the travel-cache TTL for pairs involving a moving origin.
func DynamicPairTTL() time.Duration {
	return time.Duration(AppConfig.TravelCacheTTLMin) * time.Minute
}

// FixedPairTTL is the travel-cache TTL for two persisted addresses.
func FixedPairTTL() time.Duration {
	return time.Duration(AppConfig.TravelFixedPairTTLHours) * time.Hour
}

// FallbackTTL is the short retention applied to fallback estimates so the
// live provider is retried promptly.
func FallbackTTL() time.Duration {
	return time.Duration(AppConfig.TravelFallbackTTLSec) * time.Second
}

// HealthCheckInterval is the delay between dependency health probes.
func HealthCheckInterval() time.Duration {
	sec := AppConfig.HealthCheckIntervalSec
	if sec <= 0 {
		sec = 60
	}
	return time.Duration(sec) * time.Second
}
