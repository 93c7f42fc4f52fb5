package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the data core.
type Config struct {
	App     AppConfig
	API     APIConfig
	Cache   CacheConfig
	Logging LoggingConfig
	Health  HealthConfig
}

type AppConfig struct {
	Name        string
	Environment string
}

// APIConfig configures the remote gateway.
type APIConfig struct {
	// BaseURL is the API root, e.g. "https://ops.example.com".
	BaseURL string
	// RequestTimeout is the per-request timeout in seconds. Zero disables the
	// timeout: a hung request is allowed to delay reconciliation indefinitely
	// without blocking anything else.
	RequestTimeout int
}

// CacheConfig configures the durable cache.
type CacheConfig struct {
	// Mode is "file" or "sqlite".
	Mode string
	// Path is the slot directory (file) or database file (sqlite).
	Path string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// HealthConfig configures the optional connectivity monitor job.
type HealthConfig struct {
	Enabled bool
	// Cron is the probe schedule, robfig/cron syntax.
	Cron string
}

// RequestTimeoutDuration returns the request timeout as a duration.
func (a *APIConfig) RequestTimeoutDuration() time.Duration {
	return time.Duration(a.RequestTimeout) * time.Second
}

// Load loads configuration from config.json and environment variables.
// Environment variables override the file; a .env file is honored when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "osboard")
	v.SetDefault("app.environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:8000")
	v.SetDefault("api.requesttimeout", 0)

	v.SetDefault("cache.mode", "file")
	v.SetDefault("cache.path", ".osboard-cache")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("health.enabled", false)
	v.SetDefault("health.cron", "@every 1m")
}
