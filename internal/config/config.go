// Package config defines the application configuration, loaded through viper
// with defaults, a YAML config file, and RERA_-prefixed environment
// overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration object.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Network  NetworkConfig  `mapstructure:"network" yaml:"network"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Portal   PortalConfig   `mapstructure:"portal" yaml:"portal"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instances.
type BrowserConfig struct {
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
	// Highlight draws an overlay over each freshly resolved element before
	// executing it. Advisory only.
	Highlight      bool          `mapstructure:"highlight" yaml:"highlight"`
	HighlightPause time.Duration `mapstructure:"highlight_pause" yaml:"highlight_pause"`
}

// NetworkConfig tunes waits and timeouts against the portal. The portal is
// known to be slow, hence the generous navigation bound.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	TabReadyTimeout   time.Duration `mapstructure:"tab_ready_timeout" yaml:"tab_ready_timeout"`
	QuietPeriod       time.Duration `mapstructure:"quiet_period" yaml:"quiet_period"`
	IdleWaitTimeout   time.Duration `mapstructure:"idle_wait_timeout" yaml:"idle_wait_timeout"`
}

// CacheConfig selects and configures the instruction cache backend.
type CacheConfig struct {
	// Backend is "file" or "redis".
	Backend   string      `mapstructure:"backend" yaml:"backend"`
	Path      string      `mapstructure:"path" yaml:"path"`
	KeyPrefix string      `mapstructure:"key_prefix" yaml:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds connection details for the redis cache backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"-"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// ResolverConfig configures the instruction-to-action resolver model.
type ResolverConfig struct {
	Model       string        `mapstructure:"model" yaml:"model"`
	APIKey      string        `mapstructure:"api_key" yaml:"-"`
	Endpoint    string        `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout  time.Duration `mapstructure:"api_timeout" yaml:"api_timeout"`
	Temperature float32       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	// SnapshotLimit caps the pruned DOM snapshot handed to the model, in bytes.
	SnapshotLimit int `mapstructure:"snapshot_limit" yaml:"snapshot_limit"`
}

// PortalConfig points at the registry portal.
type PortalConfig struct {
	SearchURL string `mapstructure:"search_url" yaml:"search_url"`
	// DocumentCategories are the named sections of the uploaded-documents
	// tab, each extracted with its own structured call.
	DocumentCategories []string `mapstructure:"document_categories" yaml:"document_categories"`
}

// OutputConfig controls where results land on disk.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reraharvest")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.highlight", true)
	v.SetDefault("browser.highlight_pause", "750ms")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "600s")
	v.SetDefault("network.tab_ready_timeout", "5s")
	v.SetDefault("network.quiet_period", "2s")
	v.SetDefault("network.idle_wait_timeout", "60s")

	// -- Cache --
	v.SetDefault("cache.backend", "file")
	v.SetDefault("cache.path", "action_cache.json")
	v.SetDefault("cache.key_prefix", "reraharvest:actions:")
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)

	// -- Resolver --
	v.SetDefault("resolver.model", "gemini-2.5-flash")
	v.SetDefault("resolver.api_timeout", "90s")
	v.SetDefault("resolver.temperature", 0.0)
	v.SetDefault("resolver.max_tokens", 8192)
	v.SetDefault("resolver.snapshot_limit", 120000)

	// -- Portal --
	v.SetDefault("portal.search_url", "https://rera.tn.gov.in/registered-projects")
	v.SetDefault("portal.document_categories", []string{
		"Financial Documents",
		"Project Documents",
		"Declarations",
		"NOC Documents",
		"Project Photo",
		"Other Documents",
	})

	// -- Output --
	v.SetDefault("output.dir", "scraped_data")
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the config file.
	v.BindEnv("resolver.api_key", "RERA_RESOLVER_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("cache.redis.password", "RERA_CACHE_REDIS_PASSWORD")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// NewDefaultConfig returns a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults alone.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Path == "" {
			return fmt.Errorf("cache.path is required for the file backend")
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend must be \"file\" or \"redis\", got %q", c.Cache.Backend)
	}

	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be positive")
	}
	if c.Network.TabReadyTimeout <= 0 {
		return fmt.Errorf("network.tab_ready_timeout must be positive")
	}
	// The idle poller ticks at half the quiet period, so zero would panic.
	if c.Network.QuietPeriod <= 0 {
		return fmt.Errorf("network.quiet_period must be positive")
	}
	if c.Network.IdleWaitTimeout <= 0 {
		return fmt.Errorf("network.idle_wait_timeout must be positive")
	}
	if c.Portal.SearchURL == "" {
		return fmt.Errorf("portal.search_url is required")
	}
	if len(c.Portal.DocumentCategories) == 0 {
		return fmt.Errorf("portal.document_categories must not be empty")
	}
	return nil
}
