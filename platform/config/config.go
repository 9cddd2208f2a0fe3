// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings. The lead data lives
// in two parallel schema families, each behind its own connection string.
type DatabaseConfig interface {
	GetModernDatabaseURL() string
	GetLegacyDatabaseURL() string
}

// RedisConfig provides settings for the shared reference cache backend.
type RedisConfig interface {
	GetRedisURL() string
	IsRedisEnabled() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	ModernDatabaseURL string
	LegacyDatabaseURL string
	RedisURL          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetModernDatabaseURL() string { return c.ModernDatabaseURL }
func (c *Config) GetLegacyDatabaseURL() string { return c.LegacyDatabaseURL }

// RedisConfig implementation
func (c *Config) GetRedisURL() string { return c.RedisURL }
func (c *Config) IsRedisEnabled() bool { return c.RedisURL != "" }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	// Ignore error: .env is optional in production
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", ""))

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		ModernDatabaseURL: getEnv("MODERN_DATABASE_URL", ""),
		LegacyDatabaseURL: getEnv("LEGACY_DATABASE_URL", ""),
		RedisURL:          getEnv("REDIS_URL", ""),
		CORSAllowAll:      containsWildcard(corsOrigins) || strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
	}

	if cfg.ModernDatabaseURL == "" {
		return nil, fmt.Errorf("MODERN_DATABASE_URL is required")
	}
	if cfg.LegacyDatabaseURL == "" {
		return nil, fmt.Errorf("LEGACY_DATABASE_URL is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
