package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CROSSLIST_APP_NAME":                     os.Getenv("CROSSLIST_APP_NAME"),
		"CROSSLIST_APP_ENV":                      os.Getenv("CROSSLIST_APP_ENV"),
		"CROSSLIST_APP_PORT":                     os.Getenv("CROSSLIST_APP_PORT"),
		"CROSSLIST_REDIS_HOST":                   os.Getenv("CROSSLIST_REDIS_HOST"),
		"CROSSLIST_REDIS_PORT":                   os.Getenv("CROSSLIST_REDIS_PORT"),
		"CROSSLIST_STORAGE_ACCESS_KEY":           os.Getenv("CROSSLIST_STORAGE_ACCESS_KEY"),
		"CROSSLIST_STORAGE_SECRET_KEY":           os.Getenv("CROSSLIST_STORAGE_SECRET_KEY"),
		"CROSSLIST_RETRY_MAX_RETRIES":            os.Getenv("CROSSLIST_RETRY_MAX_RETRIES"),
		"CROSSLIST_RATELIMIT_MAX_REQUESTS":       os.Getenv("CROSSLIST_RATELIMIT_MAX_REQUESTS"),
		"CROSSLIST_PLATFORMS_COUPANG_ENABLED":    os.Getenv("CROSSLIST_PLATFORMS_COUPANG_ENABLED"),
		"CROSSLIST_PLATFORMS_COUPANG_SECRET_KEY": os.Getenv("CROSSLIST_PLATFORMS_COUPANG_SECRET_KEY"),
		"CROSSLIST_PLATFORMS_ELEVEN_ENABLED":     os.Getenv("CROSSLIST_PLATFORMS_ELEVEN_ENABLED"),
		"CROSSLIST_PLATFORMS_ELEVEN_API_KEY":     os.Getenv("CROSSLIST_PLATFORMS_ELEVEN_API_KEY"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "crosslist-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Redis.Host)
		assert.Equal(t, 6379, cfg.Redis.Port)
		assert.Equal(t, 10, cfg.RateLimit.MaxRequests)
		assert.Equal(t, time.Second, cfg.RateLimit.Window)
		assert.Equal(t, 3, cfg.Retry.MaxRetries)
		assert.Equal(t, 100*time.Millisecond, cfg.Retry.InitialDelay)
		assert.Equal(t, 2.0, cfg.Retry.BackoffMultiplier)
		assert.Equal(t, 30*time.Second, cfg.Retry.MaxDelay)
		assert.Equal(t, int64(10<<20), cfg.Images.MaxFileSize)
		assert.Equal(t, 3, cfg.Images.ConcurrentUploads)
		assert.Equal(t, 1200, cfg.Images.MaxWidth)
		assert.Equal(t, 500, cfg.Images.ThumbnailSize)
		assert.Equal(t, 85, cfg.Images.JPEGQuality)
		assert.Equal(t, 24*time.Hour, cfg.Jobs.Retention)
		assert.False(t, cfg.Platforms.Coupang.Enabled)
		assert.False(t, cfg.Platforms.Eleven.Enabled)
		assert.False(t, cfg.Platforms.SmartStore.Enabled)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		clearEnv()
		os.Setenv("CROSSLIST_APP_NAME", "crosslist-test")
		os.Setenv("CROSSLIST_APP_PORT", "9090")
		os.Setenv("CROSSLIST_REDIS_HOST", "redis.internal")
		os.Setenv("CROSSLIST_RETRY_MAX_RETRIES", "5")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "crosslist-test", cfg.App.Name)
		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "redis.internal", cfg.Redis.Host)
		assert.Equal(t, 5, cfg.Retry.MaxRetries)
	})

	t.Run("production requires storage credentials", func(t *testing.T) {
		clearEnv()
		os.Setenv("CROSSLIST_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage credentials")
	})

	t.Run("production requires secrets for enabled platforms", func(t *testing.T) {
		clearEnv()
		os.Setenv("CROSSLIST_APP_ENV", "production")
		os.Setenv("CROSSLIST_STORAGE_ACCESS_KEY", "ak")
		os.Setenv("CROSSLIST_STORAGE_SECRET_KEY", "sk")
		os.Setenv("CROSSLIST_PLATFORMS_ELEVEN_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "platforms.eleven.api_key")

		os.Setenv("CROSSLIST_PLATFORMS_ELEVEN_API_KEY", "key")
		cfg, err := Load()
		require.NoError(t, err)
		assert.True(t, cfg.Platforms.Eleven.Enabled)
	})
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, base().validate())
	})

	t.Run("rejects negative max retries", func(t *testing.T) {
		cfg := base()
		cfg.Retry.MaxRetries = -1
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects backoff multiplier below one", func(t *testing.T) {
		cfg := base()
		cfg.Retry.BackoffMultiplier = 0.5
		assert.Error(t, cfg.validate())
	})

	t.Run("rejects out-of-range jpeg quality", func(t *testing.T) {
		cfg := base()
		cfg.Images.JPEGQuality = 101
		assert.Error(t, cfg.validate())
	})
}

func TestRedisConfigAddr(t *testing.T) {
	r := RedisConfig{Host: "redis.internal", Port: 6380}
	assert.Equal(t, "redis.internal:6380", r.Addr())
}
