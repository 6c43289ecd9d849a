package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port       string
	Env        string
	CORSOrigin string

	// MongoDB
	MongoURI     string
	DatabaseName string

	// Transactions
	TxnTimeout time.Duration

	// Auth
	AccessTokenSecret  string
	AccessTokenExpiry  time.Duration
	RefreshTokenSecret string
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		CORSOrigin:         getEnv("CORS_ORIGIN", "*"),
		MongoURI:           getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DatabaseName:       getEnv("DATABASE_NAME", "wavegram"),
		TxnTimeout:         getEnvDuration("TXN_TIMEOUT", 5*time.Second),
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", ""),
		AccessTokenExpiry:  getEnvDuration("ACCESS_TOKEN_EXPIRY", 24*time.Hour),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", ""),
		RefreshTokenExpiry: getEnvDuration("REFRESH_TOKEN_EXPIRY", 10*24*time.Hour),
		BcryptCost:         getEnvInt("BCRYPT_COST", 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.DatabaseName == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}
	if c.AccessTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET is required")
	}
	if c.RefreshTokenSecret == "" {
		return fmt.Errorf("REFRESH_TOKEN_SECRET is required")
	}
	if c.TxnTimeout <= 0 {
		return fmt.Errorf("TXN_TIMEOUT must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
