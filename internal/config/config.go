package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the profile service and the
// artifact builder. Values come from a .env file when present, overridden
// by environment variables.
type Config struct {
	Port        string `mapstructure:"PORT"`
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// ArtifactsDir is the root of the on-disk artifact sets.
	ArtifactsDir string `mapstructure:"ARTIFACTS_DIR"`
	// InputsDir is where the artifact builder reads raw batch inputs from.
	InputsDir string `mapstructure:"INPUTS_DIR"`

	// DatabaseURL is optional; when empty the stats mirror is disabled and
	// identity fields come from artifacts alone. postgres:// or sqlite://.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is optional; when empty the payload cache is disabled.
	RedisURL string `mapstructure:"REDIS_URL"`

	JWTSecret string `mapstructure:"JWT_SECRET"`

	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`

	// ReloadCron, when set, schedules periodic artifact reloads (picks up
	// re-labeled clusters without a restart).
	ReloadCron string `mapstructure:"RELOAD_CRON"`

	CacheTTL string `mapstructure:"CACHE_TTL"`

	DefaultSeason   string `mapstructure:"DEFAULT_SEASON"`
	DefaultSeasonID int    `mapstructure:"DEFAULT_SEASON_ID"`

	HybridThreshold float64 `mapstructure:"HYBRID_THRESHOLD"`
}

// LoadConfig reads configuration from .env and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("ARTIFACTS_DIR", "./artifacts")
	viper.SetDefault("INPUTS_DIR", "./data")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RELOAD_CRON", "")
	viper.SetDefault("CACHE_TTL", "15m")
	viper.SetDefault("DEFAULT_SEASON", "2024/25")
	viper.SetDefault("DEFAULT_SEASON_ID", 317)
	viper.SetDefault("HYBRID_THRESHOLD", 0.60)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults cover it.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the fields that have no safe fallback.
func (c *Config) Validate() error {
	if c.ArtifactsDir == "" {
		return fmt.Errorf("ARTIFACTS_DIR is required")
	}
	if c.HybridThreshold <= 0 || c.HybridThreshold > 1 {
		return fmt.Errorf("HYBRID_THRESHOLD must be in (0, 1], got %v", c.HybridThreshold)
	}
	if _, err := time.ParseDuration(c.CacheTTL); err != nil {
		return fmt.Errorf("CACHE_TTL is not a valid duration: %w", err)
	}
	return nil
}

// ParsedCacheTTL returns CACHE_TTL as a duration. Validate guarantees it
// parses.
func (c *Config) ParsedCacheTTL() time.Duration {
	d, _ := time.ParseDuration(c.CacheTTL)
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
