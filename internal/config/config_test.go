package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
	assert.Equal(t, 4, cfg.StatusCacheWorkers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("LOCK_TIMEOUT", "750ms")
	t.Setenv("STATUS_CACHE_WORKERS", "9")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 750*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 9, cfg.StatusCacheWorkers)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("LOCK_TIMEOUT", "soon")
	t.Setenv("STATUS_CACHE_WORKERS", "many")

	cfg := Load()
	assert.Equal(t, 3*time.Second, cfg.LockTimeout)
	assert.Equal(t, 4, cfg.StatusCacheWorkers)
}
