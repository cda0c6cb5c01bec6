package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Enrollment event log
	EventLogBackend string // memory, redis or s3
	EventLogKey     string
	EventLogTTL     time.Duration
	S3Bucket        string
	S3Prefix        string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	// Lead submission client
	LeadIntakeURL        string
	LeadSubmitTimeout    time.Duration
	LeadSubmitMaxRetries int
	LeadSubmitBackoff    time.Duration

	// Analytics sinks
	AnalyticsEndpoint string
	SinkTimeout       time.Duration
	GA4MeasurementID  string
	GA4APISecret      string
	MetaPixelID       string
	MetaAccessToken   string

	// Operator notifications
	EmailProvider     string
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	SESFromEmail      string
	SESFromName       string
	LeadNotifyEmails  []string

	AdminJWTSecret     string
	CORSAllowedOrigins []string
	PublicRateLimit    float64
	PublicRateBurst    int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		EventLogBackend: strings.ToLower(strings.TrimSpace(getEnv("EVENT_LOG_BACKEND", "memory"))),
		EventLogKey:     getEnv("EVENT_LOG_KEY", "barber_enrollment_events"),
		EventLogTTL:     getEnvAsDuration("EVENT_LOG_TTL", 0),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", "enrollment/"),

		AWSRegion:           getEnv("AWS_REGION", "il-central-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		LeadIntakeURL:        getEnv("LEAD_INTAKE_URL", "http://localhost:8080/api/submit-lead"),
		LeadSubmitTimeout:    getEnvAsDuration("LEAD_SUBMIT_TIMEOUT", 10*time.Second),
		LeadSubmitMaxRetries: getEnvAsInt("LEAD_SUBMIT_MAX_RETRIES", 0),
		LeadSubmitBackoff:    getEnvAsDuration("LEAD_SUBMIT_BACKOFF", 500*time.Millisecond),

		AnalyticsEndpoint: getEnv("ANALYTICS_ENDPOINT", ""),
		SinkTimeout:       getEnvAsDuration("SINK_TIMEOUT", 5*time.Second),
		GA4MeasurementID:  getEnv("GA4_MEASUREMENT_ID", ""),
		GA4APISecret:      getEnv("GA4_API_SECRET", ""),
		MetaPixelID:       getEnv("META_PIXEL_ID", ""),
		MetaAccessToken:   getEnv("META_ACCESS_TOKEN", ""),

		EmailProvider:     strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "sendgrid"))),
		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", ""),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Barber Academy"),
		SESFromEmail:      getEnv("SES_FROM_EMAIL", ""),
		SESFromName:       getEnv("SES_FROM_NAME", "Barber Academy"),
		LeadNotifyEmails:  getEnvAsList("LEAD_NOTIFY_EMAILS"),

		AdminJWTSecret:     getEnv("ADMIN_JWT_SECRET", ""),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		PublicRateLimit:    getEnvAsFloat("PUBLIC_RATE_LIMIT", 1),
		PublicRateBurst:    getEnvAsInt("PUBLIC_RATE_BURST", 10),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping blanks.
func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
