package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "REDIS_ADDR", "KAFKA_BROKERS", "KAFKA_TOPIC", "SERVICE_NAME",
		"CORS_ORIGIN", "LOG_LEVEL", "AUTO_MIGRATE", "REQUEST_TIMEOUT", "CACHE_TTL", "WORKER_GROUP", "WORKER_COUNT"} {
		t.Setenv(k, "restored after test")
		require.NoError(t, os.Unsetenv(k))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "salesorders.events", cfg.KafkaTopic)
	assert.Equal(t, "salesorder-api", cfg.ServiceName)
	assert.Equal(t, "http://localhost:3000", cfg.CORSOrigin)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "salesorder-cache", cfg.WorkerGroup)
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Empty(t, cfg.RedisAddr)
	assert.Nil(t, cfg.Brokers())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("WORKER_COUNT", "8")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.WorkerCount)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "soon")
	_, err := Load()
	assert.Error(t, err)
}
