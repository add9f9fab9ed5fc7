// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress  string
	Environment    string
	AllowedOrigins []string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string // GSI1 - direct session lookups
	EventBusName  string

	// Persistence backend: "dynamodb" or "memory"
	PersistenceDriver string

	// Lambda configuration
	IsLambda bool

	// Cache configuration
	CacheCapacity      int
	CacheTTL           time.Duration
	SessionCacheTTL    time.Duration
	MessageCacheTTL    time.Duration
	CacheSweepInterval time.Duration

	// Rate limiting (fixed windows, per identity and endpoint)
	ReadLimitWindow   time.Duration
	ReadLimitMax      int
	WriteLimitWindow  time.Duration
	WriteLimitMax     int
	SearchLimitWindow time.Duration
	SearchLimitMax    int
	SendLimitWindow   time.Duration
	SendLimitMax      int

	// Logging
	LogLevel string

	// Authentication
	JWTSecret string
	JWTIssuer string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress:  getEnv("SERVER_ADDRESS", ":8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		DynamoDBTable: getEnv("TABLE_NAME", "oration-chat"),
		IndexName:     getEnv("INDEX_NAME", "GSI1"),
		EventBusName:  getEnv("EVENT_BUS_NAME", ""),

		PersistenceDriver: getEnv("PERSISTENCE_DRIVER", "dynamodb"),

		IsLambda: os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "",

		CacheCapacity:      getEnvInt("CACHE_CAPACITY", 1000),
		CacheTTL:           getEnvDuration("CACHE_TTL", 5*time.Minute),
		SessionCacheTTL:    getEnvDuration("SESSION_CACHE_TTL", 5*time.Minute),
		MessageCacheTTL:    getEnvDuration("MESSAGE_CACHE_TTL", 2*time.Minute),
		CacheSweepInterval: getEnvDuration("CACHE_SWEEP_INTERVAL", time.Minute),

		ReadLimitWindow:   getEnvDuration("READ_LIMIT_WINDOW", time.Minute),
		ReadLimitMax:      getEnvInt("READ_LIMIT_MAX", 120),
		WriteLimitWindow:  getEnvDuration("WRITE_LIMIT_WINDOW", time.Minute),
		WriteLimitMax:     getEnvInt("WRITE_LIMIT_MAX", 30),
		SearchLimitWindow: getEnvDuration("SEARCH_LIMIT_WINDOW", time.Minute),
		SearchLimitMax:    getEnvInt("SEARCH_LIMIT_MAX", 30),
		SendLimitWindow:   getEnvDuration("SEND_LIMIT_WINDOW", time.Minute),
		SendLimitMax:      getEnvInt("SEND_LIMIT_MAX", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "oration-chat"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.PersistenceDriver != "dynamodb" && c.PersistenceDriver != "memory" {
		return fmt.Errorf("unsupported persistence driver: %s", c.PersistenceDriver)
	}
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.PersistenceDriver == "dynamodb" && c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required")
		}
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("CACHE_CAPACITY must be positive")
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated environment variable with a default
// value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
