package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	RateLimit RateLimitConfig
	Lookup    LookupConfig
	Scoring   ScoringConfig
	Logging   LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds knowledge base and history storage configuration
type DatabaseConfig struct {
	Driver      string `mapstructure:"driver"` // "sqlite" or "postgres"
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
	SeedFile    string `mapstructure:"seed_file"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP  int `mapstructure:"per_ip"` // requests per minute
	Lookup int `mapstructure:"lookup"` // barcode lookups per hour
}

// LookupConfig holds Open Beauty Facts client configuration
type LookupConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
}

// ScoringConfig holds analysis and recommendation tuning
type ScoringConfig struct {
	DefaultLimit     int  `mapstructure:"default_limit"`
	MaxLimit         int  `mapstructure:"max_limit"`
	BatchConcurrency int  `mapstructure:"batch_concurrency"`
	Debug            bool `mapstructure:"debug"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Mode string `mapstructure:"mode"` // "development" or "production"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/skinlens/")

	// SKINLENS_CACHE_REDIS_URL maps to cache.redis_url
	v.SetEnvPrefix("SKINLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:skinlens.db?_foreign_keys=on")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed_file", "data/knowledge.yaml")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.lookup", 6000)

	v.SetDefault("lookup.enabled", true)
	v.SetDefault("lookup.base_url", "https://world.openbeautyfacts.org")
	v.SetDefault("lookup.timeout", "10s")
	v.SetDefault("lookup.breaker_failures", 5)

	v.SetDefault("scoring.default_limit", 5)
	v.SetDefault("scoring.max_limit", 50)
	v.SetDefault("scoring.batch_concurrency", 4)
	v.SetDefault("scoring.debug", false)

	v.SetDefault("logging.mode", "development")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'postgres', got: %s", config.Database.Driver)
	}
	if config.Database.Driver == "postgres" && config.Database.DSN == "" {
		return fmt.Errorf("database DSN is required when driver is 'postgres'")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}
	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}
	if config.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got: %s", config.Cache.TTL)
	}

	if config.RateLimit.PerIP <= 0 {
		return fmt.Errorf("ratelimit.per_ip must be positive, got: %d", config.RateLimit.PerIP)
	}

	if config.Scoring.DefaultLimit <= 0 || config.Scoring.MaxLimit <= 0 {
		return fmt.Errorf("scoring limits must be positive")
	}
	if config.Scoring.DefaultLimit > config.Scoring.MaxLimit {
		return fmt.Errorf("scoring.default_limit (%d) exceeds scoring.max_limit (%d)",
			config.Scoring.DefaultLimit, config.Scoring.MaxLimit)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}
