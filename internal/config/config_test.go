package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "reraharvest", cfg.Logger.ServiceName)
	assert.Equal(t, "file", cfg.Cache.Backend)
	assert.Equal(t, 600*time.Second, cfg.Network.NavigationTimeout)
	assert.Equal(t, 5*time.Second, cfg.Network.TabReadyTimeout)
	assert.Len(t, cfg.Portal.DocumentCategories, 6)
	assert.Contains(t, cfg.Portal.DocumentCategories, "NOC Documents")
}

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestValidateRejectsUnknownCacheBackend(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cache.Backend = "etcd"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.backend")
}

func TestValidateRequiresRedisAddr(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.Addr = ""
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresPositiveTimeouts(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"navigation timeout", func(c *Config) { c.Network.NavigationTimeout = 0 }},
		{"tab ready timeout", func(c *Config) { c.Network.TabReadyTimeout = 0 }},
		{"quiet period", func(c *Config) { c.Network.QuietPeriod = 0 }},
		{"idle wait timeout", func(c *Config) { c.Network.IdleWaitTimeout = -time.Second }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestNewConfigFromViperAppliesOverrides(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("cache.backend", "redis")
	v.Set("cache.redis.addr", "10.0.0.5:6379")
	v.Set("network.tab_ready_timeout", "7s")

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "10.0.0.5:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 7*time.Second, cfg.Network.TabReadyTimeout)
}

func TestResolverAPIKeyFromEnv(t *testing.T) {
	t.Setenv("RERA_RESOLVER_API_KEY", "test-key-123")

	v := viper.New()
	SetDefaults(v)
	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "test-key-123", cfg.Resolver.APIKey)
}
