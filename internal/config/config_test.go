package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_BACKEND", "PROBE_TIMEOUT", "ALLOWED_ORIGINS", "MINIO_USE_SSL"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.AllowedOrigins)
	assert.False(t, cfg.MinioUseSSL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("PROBE_TIMEOUT", "500ms")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_123")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.ProbeTimeout)
	assert.Equal(t, "pk_test_123", cfg.StripePublishableKey)
	assert.True(t, cfg.MinioUseSSL)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("PROBE_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}
