package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Database
	SQLiteDBPath string

	// Auth
	JWTSecret string
	TokenTTL  time.Duration

	// AMQP (optional; async imports are disabled without it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Category suggestion service (optional)
	CategorizerURL string

	// Import
	ImportChunkSize int
}

func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "8080"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/spendtrack.db"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  getEnvDuration("TOKEN_TTL", 24*time.Hour),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "spendtrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "import_jobs"),

		CategorizerURL: getEnv("CATEGORIZER_URL", ""),

		ImportChunkSize: getEnvInt("IMPORT_CHUNK_SIZE", 100),
	}
}

// Validate collects every configuration problem into one error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}

	if c.TokenTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid token TTL %v: must be at least 1 minute", c.TokenTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CategorizerURL != "" {
		if parsedURL, err := url.Parse(c.CategorizerURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid categorizer URL '%s': %v", c.CategorizerURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid categorizer URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	}

	if c.ImportChunkSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid import chunk size %d: must be at least 1", c.ImportChunkSize))
	} else if c.ImportChunkSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid import chunk size %d: must be at most 10000", c.ImportChunkSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// AsyncImportEnabled reports whether a job queue is configured.
func (c *Config) AsyncImportEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
