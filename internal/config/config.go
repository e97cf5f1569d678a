package config

import (
	"fmt"
	"os"
	"strconv"

	composer "github.com/Conceptual-Machines/magda-composer/internal/agents/core/config"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string
	LogLevel    string // "debug" prints per-pass engine logs

	// Storage
	DatabaseURL string // empty keeps compositions in memory
	CacheSize   int    // composition results kept in the LRU cache

	// Observability
	SentryDSN           string
	CloudWatchNamespace string

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	AuthMode string

	// Composer holds the model settings
	Composer composer.Config
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "MAGDA/Composer"),
		AuthMode:            getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
		Composer:            composer.Default(),
	}
	cfg.Composer.PercussionProfile = getEnv("PERCUSSION_PROFILE", "")

	ints := []struct {
		key    string
		target *int
	}{
		{"RENDER_MAX_PASSES", &cfg.Composer.MaxPasses},
		{"TICKS_PER_BEAT", &cfg.Composer.TicksPerBeat},
		{"COMPOSITION_BARS", &cfg.Composer.Bars},
		{"PROGRESSION_MIN_CHORDS", &cfg.Composer.MinChords},
		{"PROGRESSION_MAX_CHORDS", &cfg.Composer.MaxChords},
		{"COMPOSITION_CACHE_SIZE", &cfg.CacheSize},
	}
	cfg.CacheSize = 256
	for _, v := range ints {
		if err := getEnvInt(v.key, v.target); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the service settings and the composer settings
func (c *Config) Validate() error {
	if c.CacheSize < 1 {
		return fmt.Errorf("COMPOSITION_CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	if c.AuthMode != "none" && c.AuthMode != "gateway" {
		return fmt.Errorf("AUTH_MODE must be none or gateway, got %q", c.AuthMode)
	}
	if err := c.Composer.Validate(); err != nil {
		return fmt.Errorf("composer settings: %w", err)
	}
	return nil
}

// IsProduction reports whether metrics should be shipped
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsDebug reports whether debug logs are printed
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt overwrites target when key is set
func getEnvInt(key string, target *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*target = n
	return nil
}
