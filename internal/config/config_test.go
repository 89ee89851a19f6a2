package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"campusmart/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("NOTIFY_TIMEOUT", "")

	cfg := config.Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 60, cfg.RateLimitMax)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("NOTIFY_TIMEOUT", "3s")
	t.Setenv("RATE_LIMIT_MAX", "not-a-number")
	t.Setenv("COOKIE_SECURE", "true")

	cfg := config.Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.True(t, cfg.CookieSecure)
}
