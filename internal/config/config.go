// file: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cloudinary CloudinaryConfig
	Auth       AuthConfig
	Chat       ChatConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Env        string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrationsPath  string
}

// CloudinaryConfig holds photo storage configuration
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadFolder string
}

// AuthConfig holds admin token configuration
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// ChatConfig holds AI assistant configuration
type ChatConfig struct {
	ProviderURL    string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
	DailyLimit     int
}

// CacheConfig holds cache provider configuration
type CacheConfig struct {
	Provider   string // "memory" or "redis"
	RedisURL   string
	DefaultTTL time.Duration
	MaxEntries int
}

// RateLimitConfig holds per-IP request limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env: getEnv("GO_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getIntEnv("SERVER_PORT", 8080),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			MigrationsPath:  getEnv("MIGRATIONS_PATH", "migrations"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
			APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
			UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "ecolearn/submissions"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  getDurationEnv("JWT_TOKEN_TTL", 24*time.Hour),
		},
		Chat: ChatConfig{
			ProviderURL:    getEnv("CHAT_PROVIDER_URL", ""),
			APIKey:         getEnv("CHAT_API_KEY", ""),
			Model:          getEnv("CHAT_MODEL", "gemini-1.5-flash"),
			RequestTimeout: getDurationEnv("CHAT_REQUEST_TIMEOUT", 20*time.Second),
			DailyLimit:     getIntEnv("CHAT_DAILY_LIMIT", 100),
		},
		Cache: CacheConfig{
			Provider:   getEnv("CACHE_PROVIDER", "memory"),
			RedisURL:   getEnv("REDIS_URL", ""),
			DefaultTTL: getDurationEnv("CACHE_DEFAULT_TTL", 5*time.Minute),
			MaxEntries: getIntEnv("CACHE_MAX_ENTRIES", 10000),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBoolEnv("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getIntEnv("RATE_LIMIT_RPM", 120),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth.JWTSecret == "" {
		if c.IsProduction() {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		c.Auth.JWTSecret = "dev-only-secret"
	}
	if c.Cache.Provider == "redis" && c.Cache.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when CACHE_PROVIDER=redis")
	}
	if c.Chat.DailyLimit <= 0 {
		return fmt.Errorf("CHAT_DAILY_LIMIT must be positive")
	}
	return nil
}

// IsProduction reports whether the app runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Address returns the host:port the server binds to
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
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

func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
