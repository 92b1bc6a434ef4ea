package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName         = "2fiat Topup"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultRelayPort       = "3000"
	defaultLogLevel        = "info"
	defaultUpstreamURL     = "https://2fiat.com"
	defaultRelayURL        = "http://localhost:3000"
	defaultRatesURL        = "https://getalby.com/api"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Config captures topup API runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	UpstreamURL    string
	RelayURL       string
	RatesURL       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration
}

// RelayConfig captures the standalone relay's configuration. The relay carries
// no storage and talks to exactly one upstream.
type RelayConfig struct {
	AppName        string
	Port           string
	LogLevel       string
	UpstreamURL    string
	ShutdownPeriod time.Duration
}

// Load reads configuration values from the environment (seeded from .env when
// present) and populates a Config instance. DATABASE_URL and REDIS_URL are
// optional: absent, the server falls back to in-memory stores.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		UpstreamURL:    strings.TrimSuffix(getEnv("UPSTREAM_URL", defaultUpstreamURL), "/"),
		RelayURL:       strings.TrimSuffix(getEnv("RELAY_URL", defaultRelayURL), "/"),
		RatesURL:       strings.TrimSuffix(getEnv("RATES_URL", defaultRatesURL), "/"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,
	}

	var err error
	cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay)
	if err != nil {
		return Config{}, err
	}

	cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL)
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadRelay reads the relay's configuration from the environment. The relay
// listens on PORT (default 3000) per its deployment contract.
func LoadRelay() (RelayConfig, error) {
	_ = godotenv.Load()

	cfg := RelayConfig{
		AppName:        getEnv("APP_NAME", "2fiat Topup Relay"),
		Port:           getEnv("PORT", defaultRelayPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		UpstreamURL:    strings.TrimSuffix(getEnv("UPSTREAM_URL", defaultUpstreamURL), "/"),
		ShutdownPeriod: defaultShutdownDelay,
	}

	var err error
	cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay)
	if err != nil {
		return RelayConfig{}, err
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	return listenAddress(c.Port)
}

// Address returns the relay listen address in the format Fiber expects.
func (c RelayConfig) Address() string {
	return listenAddress(c.Port)
}

func listenAddress(port string) string {
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
