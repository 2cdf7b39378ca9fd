// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Persistence backends for cart snapshots
const (
	PersistenceMemory   = "memory"
	PersistenceRedis    = "redis"
	PersistencePostgres = "postgres"
)

// Catalog sources
const (
	CatalogMemory   = "memory"
	CatalogPostgres = "postgres"
)

// Config holds all configuration for our application
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Pricing  PricingConfig
	Cart     CartConfig
	Catalog  CatalogConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
}

// JWTConfig contains the signing settings for cart session tokens
type JWTConfig struct {
	Secret        string
	SessionExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	TrustedProxies     []string
	SecureCookies      bool
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// PricingConfig holds the per-tier surcharge added to a template's base price.
// Values are decimal strings so they can be parsed without float rounding.
type PricingConfig struct {
	BaseSurcharge        string
	CustomizedSurcharge  string
	FullServiceSurcharge string
}

// CartConfig controls how session carts are cached and persisted
type CartConfig struct {
	Persistence  string
	SessionTTL   time.Duration
	MaxSessions  int
	SaveTimeout  time.Duration
	CookieName   string
	CookieMaxAge int
}

// CatalogConfig selects where templates are read from
type CatalogConfig struct {
	Source   string
	SeedFile string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Template Store"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			RequestTimeout: getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "template_store"),
			User:         getEnv("DB_USER", "template_store"),
			Password:     getEnv("DB_PASSWORD", "template_store"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
		},
		JWT: JWTConfig{
			Secret:        getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
			SessionExpiry: getEnvAsDuration("JWT_SESSION_EXPIRE", 30*24*time.Hour),
		},
		Security: SecurityConfig{
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 100),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept"}),
			TrustedProxies:     getEnvAsSlice("TRUSTED_PROXIES", []string{}),
			SecureCookies:      getEnvAsBool("SECURE_COOKIES", false),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Pricing: PricingConfig{
			BaseSurcharge:        getEnv("PRICING_SURCHARGE_BASE", "0"),
			CustomizedSurcharge:  getEnv("PRICING_SURCHARGE_CUSTOMIZED", "99"),
			FullServiceSurcharge: getEnv("PRICING_SURCHARGE_FULL_SERVICE", "299"),
		},
		Cart: CartConfig{
			Persistence:  strings.ToLower(getEnv("CART_PERSISTENCE", PersistenceRedis)),
			SessionTTL:   getEnvAsDuration("CART_SESSION_TTL", 30*24*time.Hour),
			MaxSessions:  getEnvAsInt("CART_MAX_SESSIONS", 10000),
			SaveTimeout:  getEnvAsDuration("CART_SAVE_TIMEOUT", 3*time.Second),
			CookieName:   getEnv("CART_COOKIE_NAME", "cart_session"),
			CookieMaxAge: getEnvAsInt("CART_COOKIE_MAX_AGE", 30*86400),
		},
		Catalog: CatalogConfig{
			Source:   strings.ToLower(getEnv("CATALOG_SOURCE", CatalogMemory)),
			SeedFile: getEnv("CATALOG_SEED_FILE", ""),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	switch c.Cart.Persistence {
	case PersistenceMemory, PersistenceRedis, PersistencePostgres:
	default:
		return fmt.Errorf("CART_PERSISTENCE must be one of memory, redis, postgres; got %q", c.Cart.Persistence)
	}

	switch c.Catalog.Source {
	case CatalogMemory, CatalogPostgres:
	default:
		return fmt.Errorf("CATALOG_SOURCE must be one of memory, postgres; got %q", c.Catalog.Source)
	}

	if c.UsesPostgres() {
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("DB_NAME is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("DB_USER is required")
		}
	}

	if c.UsesRedis() && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	for key, raw := range map[string]string{
		"PRICING_SURCHARGE_BASE":         c.Pricing.BaseSurcharge,
		"PRICING_SURCHARGE_CUSTOMIZED":   c.Pricing.CustomizedSurcharge,
		"PRICING_SURCHARGE_FULL_SERVICE": c.Pricing.FullServiceSurcharge,
	} {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s must be a decimal amount: %w", key, err)
		}
		if amount.IsNegative() {
			return fmt.Errorf("%s must not be negative", key)
		}
	}

	if c.Cart.MaxSessions < 1 {
		return fmt.Errorf("CART_MAX_SESSIONS must be positive")
	}

	if c.Cart.CookieName == "" {
		return fmt.Errorf("CART_COOKIE_NAME is required")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgres reports whether any backend needs a database connection
func (c *Config) UsesPostgres() bool {
	return c.Cart.Persistence == PersistencePostgres || c.Catalog.Source == CatalogPostgres
}

// UsesRedis reports whether cart snapshots live in Redis
func (c *Config) UsesRedis() bool {
	return c.Cart.Persistence == PersistenceRedis
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
