package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "memory-graph/backend/pkg/errors"
)

// Store backends
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	// App
	Port            string
	Env             string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	MetricsEnabled  bool

	// Storage
	StoreBackend string

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	// Circuit breaker around the store
	Breaker BreakerConfig
}

// BreakerConfig tunes the circuit breaker that guards the memory store
type BreakerConfig struct {
	Enabled      bool
	MaxRequests  int           // requests allowed through while half-open
	Interval     time.Duration // closed-state counter reset period
	Timeout      time.Duration // how long the breaker stays open
	FailureRatio float64
	MinRequests  int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", getEnv("BACKEND_PORT", "3001")),
		Env:             getEnv("ENV", "development"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		AllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
		StoreBackend:    strings.ToLower(getEnv("STORE_BACKEND", StoreNeo4j)),
		Neo4jURI:        getEnv("NEO4J_URI", defaultNeo4jURI()),
		Neo4jUser:       getEnv("NEO4J_USER", getEnv("NEO4J_USERNAME", "neo4j")),
		Neo4jPassword:   getEnv("NEO4J_PASSWORD", "password"),
		Neo4jDatabase:   getEnv("NEO4J_DATABASE", ""),
		Breaker: BreakerConfig{
			Enabled:      getEnvBool("BREAKER_ENABLED", true),
			MaxRequests:  getEnvInt("BREAKER_MAX_REQUESTS", 5),
			Interval:     getEnvDuration("BREAKER_INTERVAL", 30*time.Second),
			Timeout:      getEnvDuration("BREAKER_TIMEOUT", 60*time.Second),
			FailureRatio: getEnvFloat("BREAKER_FAILURE_RATIO", 0.8),
			MinRequests:  getEnvInt("BREAKER_MIN_REQUESTS", 5),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.Port == "" {
		return apperrors.NewConfigMissingRequired("PORT")
	}

	switch c.StoreBackend {
	case StoreMemory:
	case StoreNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	default:
		return apperrors.NewConfigValidationFailed("STORE_BACKEND",
			fmt.Sprintf("must be %q or %q, got %q", StoreNeo4j, StoreMemory, c.StoreBackend))
	}

	if c.Breaker.Enabled {
		if c.Breaker.FailureRatio <= 0 || c.Breaker.FailureRatio > 1 {
			return apperrors.NewConfigValidationFailed("BREAKER_FAILURE_RATIO", "must be in (0, 1]")
		}
		if c.Breaker.Timeout <= 0 {
			return apperrors.NewConfigValidationFailed("BREAKER_TIMEOUT", "must be positive")
		}
		if c.Breaker.MaxRequests < 0 {
			return apperrors.NewConfigValidationFailed("BREAKER_MAX_REQUESTS", "must not be negative")
		}
		if c.Breaker.MinRequests < 0 {
			return apperrors.NewConfigValidationFailed("BREAKER_MIN_REQUESTS", "must not be negative")
		}
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// defaultNeo4jURI composes the bolt URI from the split NEO4J_SCHEME, NEO4J_HOST
// and NEO4J_PORT variables.
func defaultNeo4jURI() string {
	scheme := getEnv("NEO4J_SCHEME", "neo4j")
	host := getEnv("NEO4J_HOST", "localhost")
	port := getEnv("NEO4J_PORT", "7687")
	return fmt.Sprintf("%s://%s:%s", scheme, host, port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseFloat(value, 64); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
