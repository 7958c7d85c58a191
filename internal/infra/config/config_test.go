package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"STOREFRONT_API_URL", "STRIPE_PUBLISHABLE_KEY", "GUEST_COOKIE_SECRET", "API_TIMEOUT",
		"UNREAD_POLL_INTERVAL", "GUEST_RATE_RPS", "GUEST_RATE_BURST", "MONGO_URI", "KAFKA_BROKERS",
		"RETRY_BACKOFF", "S3_ENDPOINT", "CORS_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, 30*time.Second, cfg.UnreadPollInterval)
	assert.Equal(t, 1.0, cfg.GuestRateRPS)
	assert.Equal(t, 5, cfg.GuestRateBurst)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.False(t, cfg.OutboxPersistent())
	assert.False(t, cfg.KafkaEnabled())
	assert.False(t, cfg.ExportsEnabled())
	assert.Equal(t, []string{"STOREFRONT_API_URL", "STRIPE_PUBLISHABLE_KEY", "GUEST_COOKIE_SECRET"}, cfg.Missing())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STOREFRONT_API_URL", "https://api.example.com")
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test")
	t.Setenv("GUEST_COOKIE_SECRET", "s3cret")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("API_TIMEOUT", "3s")
	t.Setenv("S3_ENDPOINT", "http://minio:9000")
	t.Setenv("S3_PUBLIC_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Missing())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.APITimeout)
	assert.Equal(t, "http://minio:9000", cfg.S3PublicEndpoint)
	assert.True(t, cfg.ExportsEnabled())
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"API_TIMEOUT":      "soon",
		"RETRY_BACKOFF":    "1s,later",
		"GUEST_RATE_RPS":   "-1",
		"GUEST_RATE_BURST": "many",
		"S3_USE_SSL":       "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
