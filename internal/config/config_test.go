package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDevDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Bank Fund", cfg.FundName)
	assert.Equal(t, "NEX", cfg.TopupCodePrefix)
	assert.Equal(t, "system", cfg.SystemActorUsername)
	assert.Equal(t, 5*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, ":8080", cfg.Address())
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoadRequiresBackendsOutsideDev(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadDurations(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("RECONCILE_INTERVAL_SECONDS", "30")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TOPUP_CODE_PREFIX", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 3*time.Second, cfg.ShutdownPeriod)
	assert.Equal(t, "ABC", cfg.TopupCodePrefix)

	t.Setenv("IDEMPOTENCY_TTL_SECONDS", "soon")
	_, err = Load()
	require.Error(t, err)
}

func TestLocationFallback(t *testing.T) {
	cfg := Config{BankTimezone: "Nowhere/Invalid"}
	_, offset := time.Date(2024, 1, 1, 0, 0, 0, 0, cfg.Location()).Zone()
	assert.Equal(t, 7*60*60, offset)
}
