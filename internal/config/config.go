package config

import (
	"os"
	"strconv"
	"time"

	"lanhall/internal/cache"
	"lanhall/internal/database"
	"lanhall/internal/messaging"
)

// Config holds the whole application configuration, loaded from
// environment variables with development-friendly defaults.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	Billing  BillingConfig
	Sweeper  SweeperConfig
	Database database.Config
	Redis    cache.Config
	NATS     messaging.Config
}

// BillingConfig carries the café tariff in the smallest currency unit.
type BillingConfig struct {
	Deposit     int64
	RatePerHour int64
}

// SweeperConfig controls the reservation-expiry sweep.
type SweeperConfig struct {
	BookingTimeout time.Duration
	Interval       time.Duration
	Jitter         time.Duration
	ErrorBackoff   time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		Billing: BillingConfig{
			Deposit:     getEnvInt64("BILLING_DEPOSIT", 36000),
			RatePerHour: getEnvInt64("BILLING_RATE_PER_HOUR", 36000),
		},

		Sweeper: SweeperConfig{
			BookingTimeout: getEnvDuration("SWEEP_BOOKING_TIMEOUT", 60*time.Minute),
			Interval:       getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
			Jitter:         getEnvDuration("SWEEP_JITTER", 5*time.Second),
			ErrorBackoff:   getEnvDuration("SWEEP_ERROR_BACKOFF", 2*time.Minute),
		},

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "lanhall"),
			Password:           getEnv("DB_PASSWORD", "lanhall123"),
			DBName:             getEnv("DB_NAME", "lanhall"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 50),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "lanhall"),
			ClientID:  getEnv("NATS_CLIENT_ID", "lanhall-api"),
		},
	}
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
