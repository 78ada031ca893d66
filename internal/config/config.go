package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// MongoDB
	MongoURI      string
	MongoDatabase string
	MongoTimeout  time.Duration

	// HTTP Server
	HTTPPort         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Workflow timing
	ReminderLeadTime time.Duration // delay before the expiry reminder SMS
	PendingTimeout   time.Duration // grace period before an unconfirmed record is purged
	RecordRetention  time.Duration // delay before a record is deleted outright

	// Scheduler
	SchedulerCoalesce bool // cancel-and-replace tasks per (record, kind)

	// Maintenance sweep
	SweepEnabled  bool
	SweepSchedule string

	// Twilio
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioTimeout    time.Duration

	// Gmail
	GmailClientID     string
	GmailClientSecret string
	GmailRefreshToken string
	GmailFromAddress  string

	// Plate recognition
	RecognitionURL     string
	RecognitionToken   string
	RecognitionTimeout time.Duration

	// CORS
	CORSAllowedOrigins   string
	CORSAllowedMethods   string
	CORSAllowedHeaders   string
	CORSAllowCredentials bool
	CORSMaxAge           int
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honored when present.
func Load() *Config {
	godotenv.Load()

	return &Config{
		// MongoDB
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017/prkcar?authSource=admin"),
		MongoDatabase: getEnv("MONGO_DATABASE", "prkcar"),
		MongoTimeout:  getDurationEnv("MONGO_TIMEOUT", 10*time.Second),

		// HTTP Server
		HTTPPort:         getEnv("HTTP_PORT", "5000"),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT", 30*time.Second),
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Workflow timing
		ReminderLeadTime: getDurationEnv("REMINDER_LEAD_TIME", 24*time.Hour),
		PendingTimeout:   getDurationEnv("PENDING_TIMEOUT", 15*time.Minute),
		RecordRetention:  getDurationEnv("RECORD_RETENTION", 30*24*time.Hour),

		// Scheduler
		SchedulerCoalesce: getBoolEnv("SCHEDULER_COALESCE", true),

		// Maintenance sweep
		SweepEnabled:  getBoolEnv("SWEEP_ENABLED", true),
		SweepSchedule: getEnv("SWEEP_SCHEDULE", "0 3 * * *"),

		// Twilio
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: getEnv("TWILIO_FROM_NUMBER", ""),
		TwilioTimeout:    getDurationEnv("TWILIO_TIMEOUT", 15*time.Second),

		// Gmail
		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailFromAddress:  getEnv("GMAIL_FROM_ADDRESS", ""),

		// Plate recognition
		RecognitionURL:     getEnv("RECOGNITION_URL", "https://api.platerecognizer.com/v1/plate-reader/"),
		RecognitionToken:   getEnv("RECOGNITION_TOKEN", ""),
		RecognitionTimeout: getDurationEnv("RECOGNITION_TIMEOUT", 20*time.Second),

		// CORS
		CORSAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods:   getEnv("CORS_ALLOWED_METHODS", "POST, OPTIONS"),
		CORSAllowedHeaders:   getEnv("CORS_ALLOWED_HEADERS", "Content-Type"),
		CORSAllowCredentials: getBoolEnv("CORS_ALLOW_CREDENTIALS", true),
		CORSMaxAge:           getIntEnv("CORS_MAX_AGE", 3600),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
	}
	return defaultValue
}
