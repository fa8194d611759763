package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PRICING_BATCH_SIZE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Pricing.BatchSize)
	assert.Equal(t, 3.0, cfg.Pricing.DefaultGSTPercentage)
	assert.Equal(t, "inr", cfg.Payment.Currency)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PRICING_BATCH_SIZE", "25")
	t.Setenv("STORE_CURRENCY", "INR")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com,")
	t.Setenv("REDIS_ENABLED", "TRUE")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Pricing.BatchSize)
	assert.Equal(t, "inr", cfg.Payment.Currency)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.Frontend.AllowedOrigins)
	assert.True(t, cfg.Redis.Enabled)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT secret")

	t.Setenv("JWT_SECRET", "prod-secret")
	_, err = Load()
	assert.ErrorContains(t, err, "database password")

	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("PRICING_BATCH_SIZE", "0")
	_, err = Load()
	assert.ErrorContains(t, err, "batch size")
}
