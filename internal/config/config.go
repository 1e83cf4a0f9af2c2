package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"skillforge/internal/gamification"
)

// Config holds all configuration for the application.
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Cache        CacheConfig
	Auth         AuthConfig
	Logging      LoggingConfig
	Gamification *gamification.Config
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	Environment     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds postgres connection configuration.
type DatabaseConfig struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
	MigrationsPath     string
}

// CacheConfig holds cache provider configuration.
type CacheConfig struct {
	Provider      string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PoolSize      int
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	JWTSecret string
	JWTExpiry time.Duration
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load reads configuration from the environment, with an optional .env file
// for local development.
func Load() (*Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime:    getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime:    getEnvDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			SlowQueryThreshold: getEnvDuration("DB_SLOW_QUERY_THRESHOLD", 100*time.Millisecond),
			MigrationsPath:     getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},
		Cache: CacheConfig{
			Provider:      getEnv("CACHE_PROVIDER", "memory"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			PoolSize:      getEnvInt("REDIS_POOL_SIZE", 10),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			JWTExpiry: getEnvDuration("JWT_EXPIRY", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Gamification: loadGamification(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadGamification applies environment overrides on top of the built-in
// point table and level curve.
func loadGamification() *gamification.Config {
	cfg := gamification.DefaultConfig()
	cfg.LeaderboardLimit = getEnvInt("GAMIFICATION_LEADERBOARD_LIMIT", cfg.LeaderboardLimit)
	cfg.MaxEvaluationPasses = getEnvInt("GAMIFICATION_MAX_EVALUATION_PASSES", cfg.MaxEvaluationPasses)
	cfg.LeaderboardCacheTTL = getEnvDuration("GAMIFICATION_LEADERBOARD_CACHE_TTL", cfg.LeaderboardCacheTTL)
	cfg.CatalogCacheTTL = getEnvDuration("GAMIFICATION_CATALOG_CACHE_TTL", cfg.CatalogCacheTTL)
	return cfg
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	switch c.Cache.Provider {
	case "memory", "redis":
	default:
		return fmt.Errorf("CACHE_PROVIDER must be memory or redis, got %q", c.Cache.Provider)
	}
	if err := c.Gamification.Validate(); err != nil {
		return fmt.Errorf("gamification config: %w", err)
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// Addr returns the host:port the server listens on.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// ===============================
// ENV HELPERS
// ===============================

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
