package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL string
	// JWTSecret verifies access tokens issued by the hosted auth provider
	JWTSecret   string
	RedisURL    string
	Port        string
	Environment string
	LogLevel    string
	// Security configuration
	AllowedOrigins  string
	TrustedProxies  string
	EnableRateLimit bool
	MaxRequestSize  int64
	// Wizard drafts
	DraftTTL time.Duration
	// Enrichment workers
	EnrichmentConcurrency int
	EnrichmentTimeout     time.Duration
	EnrichmentUserAgent   string
}

// New creates a new configuration instance from environment variables
func New() *Config {
	return &Config{
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("SUPABASE_JWT_SECRET", getEnv("JWT_SECRET", "")),
		RedisURL:              getEnv("REDIS_URL", ""),
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		AllowedOrigins:        getEnv("ALLOWED_ORIGINS", ""),
		TrustedProxies:        getEnv("TRUSTED_PROXIES", ""),
		EnableRateLimit:       getEnv("ENABLE_RATE_LIMIT", "true") == "true",
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 25*1024*1024), // data room uploads carry five CSVs
		DraftTTL:              getEnvAsDuration("DRAFT_TTL", 7*24*time.Hour),
		EnrichmentConcurrency: getEnvAsInt("ENRICHMENT_CONCURRENCY", 4),
		EnrichmentTimeout:     getEnvAsDuration("ENRICHMENT_TIMEOUT", 15*time.Second),
		EnrichmentUserAgent:   getEnv("ENRICHMENT_USER_AGENT", "Mozilla/5.0 (compatible; Dealscope-Enricher/1.0)"),
	}
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasRedis reports whether a Redis URL is configured for drafts and realtime fan-out
func (c *Config) HasRedis() bool {
	return c.RedisURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// GetAllowedOrigins returns a slice of allowed CORS origins
func (c *Config) GetAllowedOrigins() []string {
	if c.AllowedOrigins == "" {
		return []string{}
	}
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// GetTrustedProxies returns a slice of trusted proxy IPs
func (c *Config) GetTrustedProxies() []string {
	if c.TrustedProxies == "" {
		return []string{}
	}
	return strings.Split(c.TrustedProxies, ",")
}
