package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadRedisConfig_Defaults(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_DB", "")
	t.Setenv("CACHE_TTL", "")

	config := LoadRedisConfig()

	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, time.Hour, config.CacheTTL)
}

func TestLoadRedisConfig_Env(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("CACHE_TTL", "90s")

	config := LoadRedisConfig()

	assert.Equal(t, "cache:6380", config.Addr)
	assert.Equal(t, 3, config.DB)
	assert.Equal(t, 90*time.Second, config.CacheTTL)
}

func TestLoadRedisConfig_BadTTLKeepsDefault(t *testing.T) {
	t.Setenv("CACHE_TTL", "soon")

	assert.Equal(t, time.Hour, LoadRedisConfig().CacheTTL)
}

func TestLoadMongoConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MONGODB_DATABASE", "books_test")
	t.Setenv("MONGODB_MAX_POOL_SIZE", "7")
	t.Setenv("MONGODB_MIN_POOL_SIZE", "")

	config := LoadMongoConfig()

	assert.Equal(t, "mongodb://db:27017", config.URI)
	assert.Equal(t, "books_test", config.Database)
	assert.Equal(t, uint64(7), config.MaxPoolSize)
	assert.Equal(t, uint64(25), config.MinPoolSize)
}

func TestLoadServiceConfig(t *testing.T) {
	t.Setenv("BOOK_SERVICE_PORT", "")
	t.Setenv("BOOK_STORE", StoreMemory)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "")

	config := LoadServiceConfig()

	assert.Equal(t, "50052", config.Port)
	assert.Equal(t, StoreMemory, config.Store)
	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "text", config.LogFormat)
}
