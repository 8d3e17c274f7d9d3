package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Payment gateway configuration
	Payment PaymentConfig

	// SMS configuration
	SMS SMSConfig

	// Reminder job configuration
	Reminder ReminderConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// PaymentConfig holds Stripe configuration
type PaymentConfig struct {
	SecretKey string // Stripe secret key (SECRET - never expose to client)
	Currency  string
}

// SMSConfig holds Twilio SMS gateway configuration
type SMSConfig struct {
	Mode        string // "dev" logs instead of sending, "production" sends via Twilio
	AccountSID  string
	AuthToken   string
	FromNumber  string // sending phone number in E.164 format
	APIBaseURL  string // overridable for tests
	DefaultTest string // default recipient for the SMS test endpoint
}

// ReminderConfig holds reminder job configuration
type ReminderConfig struct {
	CronSchedule string // robfig/cron spec with seconds field
	CronSecret   string // shared secret for the external trigger endpoint
	LeadDays     int    // how many days ahead to remind (default 1 = tomorrow)
	BusinessName string // used in the reminder message copy
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Payment: PaymentConfig{
			SecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:  getEnv("STRIPE_CURRENCY", "usd"),
		},
		SMS: SMSConfig{
			Mode:        getEnv("SMS_MODE", "dev"),
			AccountSID:  getEnv("TWILIO_ACCOUNT_SID", ""),
			AuthToken:   getEnv("TWILIO_AUTH_TOKEN", ""),
			FromNumber:  getEnv("TWILIO_PHONE_NUMBER", ""),
			APIBaseURL:  getEnv("TWILIO_API_BASE_URL", "https://api.twilio.com"),
			DefaultTest: getEnv("SMS_TEST_DEFAULT_PHONE", ""),
		},
		Reminder: ReminderConfig{
			// second minute hour day month weekday: 5 PM server time daily
			CronSchedule: getEnv("REMINDER_CRON_SCHEDULE", "0 0 17 * * *"),
			CronSecret:   getEnv("REMINDER_CRON_SECRET", ""),
			LeadDays:     getEnvAsInt("REMINDER_LEAD_DAYS", 1),
			BusinessName: getEnv("BUSINESS_NAME", "Kerr Detailing"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization", "X-Cron-Secret"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Server.Environment == "production" {
		if c.Payment.SecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required in production")
		}
		if c.Reminder.CronSecret == "" {
			return fmt.Errorf("REMINDER_CRON_SECRET is required in production")
		}
	}

	// Validate SMS configuration only in production mode
	if c.SMS.Mode == "production" {
		if c.SMS.AccountSID == "" {
			return fmt.Errorf("TWILIO_ACCOUNT_SID is required in production SMS mode")
		}
		if c.SMS.AuthToken == "" {
			return fmt.Errorf("TWILIO_AUTH_TOKEN is required in production SMS mode")
		}
		if c.SMS.FromNumber == "" {
			return fmt.Errorf("TWILIO_PHONE_NUMBER is required in production SMS mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
