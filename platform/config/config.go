// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTSecret() string
}

// AuthConfig provides settings needed by the admin auth service.
type AuthConfig interface {
	JWTConfig
	GetAdminPasswordHash() string
	GetSessionTTL() time.Duration
}

// ZoneConfig provides settings for the zone table cache.
type ZoneConfig interface {
	GetUseDBZones() bool
	GetZoneCacheTTL() time.Duration
	GetZonesSeedFile() string
}

// CommercialConfig provides settings for the commercial lifecycle.
type CommercialConfig interface {
	GetFeatureReservations() bool
	GetDefaultReservationHours() int
}

// ExportConfig provides settings for sales exports.
type ExportConfig interface {
	GetExportPII() bool
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSOrigins() []string
}

// RateLimitConfig provides per-IP rate limit settings.
type RateLimitConfig interface {
	GetRateLimitPerMinute() int
	GetIntakeRateLimitPerMinute() int
}

// EngineConfig identifies the scoring engine build for audit snapshots.
type EngineConfig interface {
	GetEngineVersion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	CORSOrigins             []string
	JWTSecret               string
	AdminPasswordHash       string
	SessionTTL              time.Duration
	UseDBZones              bool
	ZoneCacheTTL            time.Duration
	ZonesSeedFile           string
	EngineVersion           string
	FeatureReservations     bool
	DefaultReservationHours int
	ExportPII               bool
	RateLimitPerMinute      int
	IntakeRateLimitPerMin   int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig / AuthConfig implementation
func (c *Config) GetJWTSecret() string         { return c.JWTSecret }
func (c *Config) GetAdminPasswordHash() string { return c.AdminPasswordHash }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// ZoneConfig implementation
func (c *Config) GetUseDBZones() bool            { return c.UseDBZones }
func (c *Config) GetZoneCacheTTL() time.Duration { return c.ZoneCacheTTL }
func (c *Config) GetZonesSeedFile() string       { return c.ZonesSeedFile }

// CommercialConfig implementation
func (c *Config) GetFeatureReservations() bool    { return c.FeatureReservations }
func (c *Config) GetDefaultReservationHours() int { return c.DefaultReservationHours }

// ExportConfig implementation
func (c *Config) GetExportPII() bool { return c.ExportPII }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// RateLimitConfig implementation
func (c *Config) GetRateLimitPerMinute() int       { return c.RateLimitPerMinute }
func (c *Config) GetIntakeRateLimitPerMinute() int { return c.IntakeRateLimitPerMin }

// EngineConfig implementation
func (c *Config) GetEngineVersion() string { return c.EngineVersion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		HTTPAddr:                getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		AdminPasswordHash:       getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionTTL:              mustDuration(getEnv("SESSION_TTL", "12h")),
		UseDBZones:              boolEnv("USE_DB_ZONES", true),
		ZoneCacheTTL:            time.Duration(mustInt(getEnv("ZONE_CACHE_TTL_SECONDS", "300"))) * time.Second,
		ZonesSeedFile:           getEnv("ZONES_SEED_FILE", "configs/zones.yaml"),
		EngineVersion:           getEnv("ENGINE_VERSION", "iei_engine_v1"),
		FeatureReservations:     boolEnv("FEATURE_RESERVATIONS", true),
		DefaultReservationHours: mustInt(getEnv("DEFAULT_RESERVATION_HOURS", "72")),
		ExportPII:               boolEnv("EXPORT_PII", false),
		RateLimitPerMinute:      mustInt(getEnv("RATE_LIMIT_PER_MINUTE", "120")),
		IntakeRateLimitPerMin:   mustInt(getEnv("RATE_LIMIT_LEADS_PER_MINUTE", "20")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.AdminPasswordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}
	if cfg.ZoneCacheTTL <= 0 {
		return nil, fmt.Errorf("ZONE_CACHE_TTL_SECONDS must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
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
