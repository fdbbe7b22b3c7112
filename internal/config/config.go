package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultPort            = "8080"
	defaultAccessTTL       = 15 * time.Minute
	defaultRefreshTTL      = 7 * 24 * time.Hour
	defaultShutdownPeriod  = 10 * time.Second
	defaultLoginPerMinute  = 5
	defaultRateBurst       = 20
	defaultRatePerSecond   = 10
	secretEnvVar           = "MERIDIAN_AUTH_SECRET"
	dsnEnvVar              = "MERIDIAN_PG_DSN"
	redisEnvVar            = "MERIDIAN_REDIS_URL"
	accessTTLEnvVar        = "MERIDIAN_ACCESS_TTL"
	refreshTTLEnvVar       = "MERIDIAN_REFRESH_TTL"
	loginPerMinuteEnvVar   = "MERIDIAN_LOGIN_ATTEMPTS_PER_MINUTE"
	shutdownPeriodEnvVar   = "MERIDIAN_SHUTDOWN_TIMEOUT"
	rateBurstEnvVar        = "MERIDIAN_HTTP_RATE_BURST"
	ratePerSecondEnvVar    = "MERIDIAN_HTTP_RATE_PER_SECOND"
	portEnvVar             = "PORT"
)

// Config captures runtime configuration loaded from environment variables.
// AuthSecret is the process-wide signing secret: loaded once at startup,
// immutable thereafter, never logged.
type Config struct {
	Port            string
	AuthSecret      string
	PGDSN           string
	RedisURL        string
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	LoginPerMinute  int
	RateBurst       int
	RatePerSecond   int
	ShutdownPeriod  time.Duration
}

// Load reads configuration from the environment. A missing signing secret is
// a startup error; the caller must abort rather than run degraded.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv(portEnvVar, defaultPort),
		AuthSecret:     strings.TrimSpace(os.Getenv(secretEnvVar)),
		PGDSN:          os.Getenv(dsnEnvVar),
		RedisURL:       os.Getenv(redisEnvVar),
		AccessTTL:      defaultAccessTTL,
		RefreshTTL:     defaultRefreshTTL,
		LoginPerMinute: defaultLoginPerMinute,
		RateBurst:      defaultRateBurst,
		RatePerSecond:  defaultRatePerSecond,
		ShutdownPeriod: defaultShutdownPeriod,
	}

	if cfg.AuthSecret == "" {
		return Config{}, fmt.Errorf("%s must be set", secretEnvVar)
	}

	for _, entry := range []struct {
		env  string
		dest *time.Duration
	}{
		{accessTTLEnvVar, &cfg.AccessTTL},
		{refreshTTLEnvVar, &cfg.RefreshTTL},
		{shutdownPeriodEnvVar, &cfg.ShutdownPeriod},
	} {
		if v := os.Getenv(entry.env); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", entry.env, err)
			}
			if d <= 0 {
				return Config{}, fmt.Errorf("invalid %s: must be positive", entry.env)
			}
			*entry.dest = d
		}
	}

	for _, entry := range []struct {
		env  string
		dest *int
	}{
		{loginPerMinuteEnvVar, &cfg.LoginPerMinute},
		{rateBurstEnvVar, &cfg.RateBurst},
		{ratePerSecondEnvVar, &cfg.RatePerSecond},
	} {
		if v := os.Getenv(entry.env); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return Config{}, fmt.Errorf("invalid %s: %q", entry.env, v)
			}
			*entry.dest = n
		}
	}

	return cfg, nil
}

// Address returns the listen address for the HTTP server.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
