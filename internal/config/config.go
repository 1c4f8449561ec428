package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName           = "NexusTreasury"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultReconcileInterval = 5 * time.Minute
	defaultAccessTokenTTL    = 15 * time.Minute
	defaultSystemActor       = "system"
	defaultFundName          = "Bank Fund"
	defaultCodePrefix        = "NEX"
	defaultBankTimezone      = "Asia/Ho_Chi_Minh"
	idemTTLSecondsEnvVar     = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar         = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar    = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar   = "SHUTDOWN_TIMEOUT"
	reconcileSecondsEnvVar   = "RECONCILE_INTERVAL_SECONDS"
	reconcileDurationEnvVar  = "RECONCILE_INTERVAL"
	accessTTLEnvVar          = "ACCESS_TOKEN_TTL"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName             string
	AppEnv              string
	Port                string
	LogLevel            string
	DatabaseURL         string
	RedisURL            string
	ShutdownPeriod      time.Duration
	IdempotencyTTL      time.Duration
	ReconcileInterval   time.Duration
	JWTSecret           string
	AccessTokenTTL      time.Duration
	SystemActorUsername string
	FundName            string
	TopupCodePrefix     string
	BankTimezone        string
	WebhookAPIKeyHash   string
	SeedAdminPassword   string
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		ShutdownPeriod:      defaultShutdownDelay,
		IdempotencyTTL:      defaultIdempotencyTTL,
		ReconcileInterval:   defaultReconcileInterval,
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AccessTokenTTL:      defaultAccessTokenTTL,
		SystemActorUsername: getEnv("SYSTEM_ACTOR_USERNAME", defaultSystemActor),
		FundName:            getEnv("FUND_NAME", defaultFundName),
		TopupCodePrefix:     strings.ToUpper(getEnv("TOPUP_CODE_PREFIX", defaultCodePrefix)),
		BankTimezone:        getEnv("BANK_TIMEZONE", defaultBankTimezone),
		WebhookAPIKeyHash:   os.Getenv("WEBHOOK_API_KEY_HASH"),
		SeedAdminPassword:   os.Getenv("SEED_ADMIN_PASSWORD"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = durationFromEnv(reconcileSecondsEnvVar, reconcileDurationEnvVar, cfg.ReconcileInterval); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(accessTTLEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", accessTTLEnvVar, err)
		}
		cfg.AccessTokenTTL = d
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set")
		}
	} else if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}

	if cfg.TopupCodePrefix == "" {
		return Config{}, fmt.Errorf("TOPUP_CODE_PREFIX must not be empty")
	}

	return cfg, nil
}

// IsDev reports whether in-memory backends are acceptable.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// Location resolves the bank timezone, falling back to UTC+7 when tzdata is unavailable.
func (c Config) Location() *time.Location {
	if loc, err := time.LoadLocation(c.BankTimezone); err == nil {
		return loc
	}
	return time.FixedZone("UTC+7", 7*60*60)
}

func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
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
