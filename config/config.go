package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// Feed configuration
	Feed FeedConfig

	// Analysis configuration
	Analysis AnalysisConfig
}

// FeedConfig holds the upstream tick feed settings
type FeedConfig struct {
	Enabled   bool
	URL       string
	AuthToken string
}

// AnalysisConfig holds analysis tuning parameters
type AnalysisConfig struct {
	// Burst detection
	BurstBucketMinutes int
	BurstMultiplier    float64

	// Retention
	RetentionGraceDays int
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "bandarlab"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "bandarlab"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "bandarlab123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		// Feed configuration
		Feed: FeedConfig{
			Enabled:   getEnvOrDefault("FEED_ENABLED", "false") == "true",
			URL:       getEnvOrDefault("FEED_WS_URL", "ws://localhost:9001/ticks"),
			AuthToken: os.Getenv("FEED_AUTH_TOKEN"),
		},

		// Analysis configuration
		Analysis: AnalysisConfig{
			BurstBucketMinutes: getEnvInt("ANALYSIS_BURST_BUCKET_MINUTES", 1),
			BurstMultiplier:    getEnvFloat("ANALYSIS_BURST_MULTIPLIER", 3.0),
			RetentionGraceDays: getEnvInt("ANALYSIS_RETENTION_GRACE_DAYS", 7),
		},
	}
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("⚠️  Invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

// getEnvFloat gets environment variable as float64 or returns default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		log.Printf("⚠️  Invalid value for %s, using default %.2f", key, defaultValue)
	}
	return defaultValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
