package config

import (
	"os"
	"strconv"
	"time"
)

// DefaultAPIBase is used when LEDGER_API_BASE is unset.
const DefaultAPIBase = "http://localhost:5000"

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Local web surface
	Port     int
	LogLevel string

	// Ledger backend; every call goes to APIBase + "/api" + path.
	APIBase string

	// Session file; empty means the per-user default location.
	SessionFile string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Board cache; LoadTimeout bounds one shared entry refresh.
	CacheTTL    time.Duration
	LoadTimeout time.Duration

	// Observability; empty disables trace export.
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBase:     getEnv("LEDGER_API_BASE", DefaultAPIBase),
		SessionFile: getEnv("LEDGER_SESSION_FILE", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 2),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 8),

		CacheTTL:    getEnvDuration("CACHE_TTL", 30*time.Minute),
		LoadTimeout: getEnvDuration("LOAD_TIMEOUT", 30*time.Second),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
